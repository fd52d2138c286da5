package server

// Client is one viewer connection, either WebSocket or plain TCP.
type Client interface {
	// ReadLine blocks until a complete command line is received.
	ReadLine() (string, error)

	// WriteLine sends one message. WebSocket clients get one frame per call.
	WriteLine(message string) error

	Close() error
	RemoteAddr() string
}
