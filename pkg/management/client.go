package management

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	connectTimeout   = 1 * time.Second
	readWriteTimeout = 8 * time.Second

	pongString = "OK: pong"
)

// Client talks to a daemon's management socket.
type Client struct {
	socketPath string
}

// NewClient creates a client for the default socket path of app.
func NewClient(app string) *Client {
	return NewClientAt(GetDefaultSocketPath(app))
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// IsServerStarted reports whether a daemon answers on the socket.
func (c *Client) IsServerStarted() bool {
	res, err := c.SendCommand("ping")
	if err != nil {
		return false
	}
	return res == pongString
}

// SendCommand sends one command line and returns the trimmed response.
func (c *Client) SendCommand(command string) (string, error) {
	if command == "" {
		command = "help"
	}

	conn, err := net.DialTimeout("unix", c.socketPath, connectTimeout)
	if err != nil {
		return "", fmt.Errorf("error connecting to daemon socket %s: %w (is the daemon running?)", c.socketPath, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(readWriteTimeout)); err != nil {
		return "", fmt.Errorf("error setting read/write deadline: %w", err)
	}

	if _, err = fmt.Fprintf(conn, "%s\n", command); err != nil {
		return "", fmt.Errorf("error sending command: %w", err)
	}

	reader := bufio.NewReader(conn)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("error reading response: %w", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "." {
			break
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
