package server

import (
	"bufio"
	"net"
	"strings"
)

// TelnetClient serves the ASCII viewer over a raw TCP connection.
type TelnetClient struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer
}

// NewTelnetClient creates a new TelnetClient from a TCP connection.
func NewTelnetClient(conn net.Conn) *TelnetClient {
	return &TelnetClient{
		conn:    conn,
		scanner: bufio.NewScanner(conn),
		writer:  bufio.NewWriter(conn),
	}
}

// ReadLine reads a line from the connection, dropping a trailing carriage return.
func (c *TelnetClient) ReadLine() (string, error) {
	if c.scanner.Scan() {
		return strings.TrimRight(c.scanner.Text(), "\r"), nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", net.ErrClosed
}

// WriteLine writes the message with telnet line endings.
func (c *TelnetClient) WriteLine(message string) error {
	message = strings.ReplaceAll(message, "\n", "\r\n")
	if _, err := c.writer.WriteString(message + "\r\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *TelnetClient) Close() error {
	return c.conn.Close()
}

func (c *TelnetClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
