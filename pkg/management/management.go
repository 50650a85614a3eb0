// Package management exposes a line-oriented Unix-socket control channel
// for the monitor daemon, so `lanwake ctl` can query or stop a running
// session without signals.
package management

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"lanwake-go/pkg/log"
)

const defaultSocketDir = "/run/lanwake"

func GetDefaultSocketPath(app string) string {
	return fmt.Sprintf("%s/%s", defaultSocketDir, app)
}

// CommandHandler receives the command arguments and returns a response
// string or an error.
type CommandHandler func(args []string) (string, error)

// CommandInfo holds a handler and its help description.
type CommandInfo struct {
	Handler     CommandHandler
	Description string
}

// Server manages the Unix socket listener for daemon control.
type Server struct {
	socketPath string
	listener   net.Listener
	handlers   map[string]CommandInfo
	mu         sync.RWMutex
	quit       chan struct{}
	wg         sync.WaitGroup
	startTime  time.Time
}

func ensureSocketDir(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		os.MkdirAll(path, 0755)
	}
}

// NewServer creates a management server on the default socket path for app.
func NewServer(app string) *Server {
	ensureSocketDir(defaultSocketDir)
	return NewServerAt(GetDefaultSocketPath(app))
}

// NewServerAt creates a management server on an explicit socket path.
func NewServerAt(socketPath string) *Server {
	s := &Server{
		socketPath: socketPath,
		handlers:   make(map[string]CommandInfo),
		quit:       make(chan struct{}),
		startTime:  time.Now(),
	}
	s.RegisterHandler("status", "Show daemon status and uptime", s.handleStatusCommand)
	s.RegisterHandler("ping", "Check if the daemon's management interface is responsive", s.handlePingCommand)
	s.RegisterHandler("help", "Show help for commands. Usage: help [command]", s.handleHelpCommand)
	return s
}

// RegisterHandler adds a command handler along with its description.
func (s *Server) RegisterHandler(command, description string, handler CommandHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lowerCommand := strings.ToLower(command)
	if _, exists := s.handlers[lowerCommand]; exists {
		log.Printf("mgmt: warning: overwriting handler for command: %s", lowerCommand)
	}
	s.handlers[lowerCommand] = CommandInfo{Handler: handler, Description: description}
}

// Start listens on the Unix socket.
func (s *Server) Start() error {
	s.quit = make(chan struct{})

	// Remove a stale socket file from a previous run.
	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			log.Printf("mgmt: warning: failed to remove existing socket file: %v", err)
		}
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", s.socketPath, err)
	}
	s.listener = listener
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		log.Printf("mgmt: warning: could not set socket permissions: %v", err)
	}

	log.Printf("mgmt: management server listening on %s", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop gracefully shuts down the management server.
func (s *Server) Stop() {
	close(s.quit)

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()

	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			log.Printf("mgmt: error removing socket file %s: %v", s.socketPath, err)
		}
	}
	log.Printf("mgmt: server stopped")
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		default:
			// Deadline so the loop can observe quit.
			if unixListener, ok := s.listener.(*net.UnixListener); ok {
				_ = unixListener.SetDeadline(time.Now().Add(1 * time.Second))
			}

			conn, err := s.listener.Accept()
			if err != nil {
				if opErr, ok := err.(*net.OpError); ok && opErr.Timeout() {
					continue
				}
				select {
				case <-s.quit:
					return
				default:
					log.Printf("mgmt: error accepting connection: %v", err)
					time.Sleep(100 * time.Millisecond)
					continue
				}
			}
			s.wg.Add(1)
			go s.handleConnection(conn)
		}
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		cmdLine, err := reader.ReadString('\n')
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				fmt.Fprintln(writer, "error: read timeout")
				writer.Flush()
			}
			return
		}
		conn.SetReadDeadline(time.Time{})

		cmdLine = strings.TrimSpace(cmdLine)
		if cmdLine == "" {
			continue
		}
		if cmdLine == "quit" {
			fmt.Fprintln(writer, "OK: Bye!")
			writer.Flush()
			return
		}

		parts := strings.Fields(cmdLine)
		command := strings.ToLower(parts[0])
		args := parts[1:]

		var response string

		s.mu.RLock()
		cmdInfo, ok := s.handlers[command]
		s.mu.RUnlock()

		if ok {
			var handlerErr error
			response, handlerErr = cmdInfo.Handler(args)
			if handlerErr != nil {
				response = fmt.Sprintf("mgmt: error executing %s: %v", command, handlerErr)
			}
		} else {
			response = fmt.Sprintf("Error: Unknown command '%s'. Try 'help'.", command)
		}

		// Multi-line responses are terminated by a lone '.'.
		if _, err = writer.WriteString(response + "\n.\n"); err != nil {
			return
		}
		if err = writer.Flush(); err != nil {
			return
		}
	}
}

// --- Default command handlers ---

func (s *Server) handleStatusCommand(args []string) (string, error) {
	uptime := time.Since(s.startTime).Round(time.Second)
	return fmt.Sprintf("OK: Daemon running. Uptime: %s", uptime), nil
}

func (s *Server) handlePingCommand(args []string) (string, error) {
	return "OK: pong", nil
}

// handleHelpCommand lists commands with descriptions or shows help for a
// specific command.
func (s *Server) handleHelpCommand(args []string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var response strings.Builder

	if len(args) > 0 {
		cmdName := strings.ToLower(args[0])
		cmdInfo, ok := s.handlers[cmdName]
		if !ok {
			response.WriteString(fmt.Sprintf("Error: Unknown command '%s'. Try 'help' for a list.", cmdName))
		} else {
			response.WriteString(fmt.Sprintf("OK: Help for '%s':\n", cmdName))
			response.WriteString(fmt.Sprintf("  Usage: %s [args...]\n", cmdName))
			response.WriteString(fmt.Sprintf("  Description: %s", cmdInfo.Description))
		}
		return response.String(), nil
	}

	response.WriteString("OK: Available commands:\n")

	cmds := make([]string, 0, len(s.handlers))
	for cmd := range s.handlers {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)

	maxLen := 0
	for _, cmd := range cmds {
		if len(cmd) > maxLen {
			maxLen = len(cmd)
		}
	}
	for _, cmd := range cmds {
		cmdInfo := s.handlers[cmd]
		padding := strings.Repeat(" ", maxLen-len(cmd)+2)
		response.WriteString(fmt.Sprintf("  %s%s%s\n", cmd, padding, cmdInfo.Description))
	}
	response.WriteString("\nUse 'help <command>' for more details on a specific command.")

	return strings.TrimRight(response.String(), "\n"), nil
}
