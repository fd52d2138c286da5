// Package testclient drives the telnet map viewer for integration tests.
package testclient

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// HeaderPrefix starts the first line of every map the server sends.
const HeaderPrefix = "Seed "

// TestClient is one telnet viewer connection.
type TestClient struct {
	Name     string
	conn     net.Conn
	reader   *bufio.Reader
	writer   *bufio.Writer
	messages []string
	mu       sync.Mutex // Protects messages
	writeMu  sync.Mutex
	done     chan struct{}
	once     sync.Once
}

// NewTestClientRaw connects without waiting for anything.
func NewTestClientRaw(name, address string) (*TestClient, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	client := &TestClient{
		Name:     name,
		conn:     conn,
		reader:   bufio.NewReader(conn),
		writer:   bufio.NewWriter(conn),
		messages: make([]string, 0),
		done:     make(chan struct{}),
	}
	go client.readMessages()

	return client, nil
}

// NewTestClient connects and waits for the server's first map or error line.
func NewTestClient(name, address string) (*TestClient, error) {
	client, err := NewTestClientRaw(name, address)
	if err != nil {
		return nil, err
	}
	if _, ok := client.WaitForAnyMessage([]string{HeaderPrefix, "Error:"}, 2*time.Second); !ok {
		messages := client.GetMessages()
		client.Close()
		return nil, fmt.Errorf("no map received, messages: %v", messages)
	}
	return client, nil
}

func (c *TestClient) readMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
			line, err := c.reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line != "" {
				c.mu.Lock()
				c.messages = append(c.messages, line)
				c.mu.Unlock()
			}
		}
	}
}

// SendCommand sends a command to the server
func (c *TestClient) SendCommand(cmd string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.writer.WriteString(cmd + "\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

// GetMessages returns all messages received so far
func (c *TestClient) GetMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]string, len(c.messages))
	copy(result, c.messages)
	return result
}

// ClearMessages clears the message buffer
func (c *TestClient) ClearMessages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make([]string, 0)
}

// WaitForMessage waits for a message containing the specified text (with timeout)
func (c *TestClient) WaitForMessage(text string, timeout time.Duration) bool {
	_, ok := c.WaitForAnyMessage([]string{text}, timeout)
	return ok
}

// WaitForAnyMessage waits for any of the specified texts (with timeout)
func (c *TestClient) WaitForAnyMessage(texts []string, timeout time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		for _, msg := range c.GetMessages() {
			for _, text := range texts {
				if strings.Contains(msg, text) {
					return text, true
				}
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	return "", false
}

// LastMap returns the header and rows of the most recent map received.
// Rows that arrive after a later error line are still part of that map.
func (c *TestClient) LastMap() (header string, rows []string) {
	messages := c.GetMessages()
	start := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.HasPrefix(messages[i], HeaderPrefix) {
			start = i
			break
		}
	}
	if start < 0 {
		return "", nil
	}
	for _, line := range messages[start+1:] {
		if strings.HasPrefix(line, "Error:") {
			continue
		}
		rows = append(rows, line)
	}
	return messages[start], rows
}

// Close closes the client connection
func (c *TestClient) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// PrintMessages prints all messages (for debugging)
func (c *TestClient) PrintMessages() {
	fmt.Printf("\n=== Messages for %s ===\n", c.Name)
	for i, msg := range c.GetMessages() {
		fmt.Printf("[%d] %s\n", i, msg)
	}
	fmt.Println("======================")
}

// HasMessage checks if any message contains the specified text
func (c *TestClient) HasMessage(text string) bool {
	for _, msg := range c.GetMessages() {
		if strings.Contains(msg, text) {
			return true
		}
	}
	return false
}
