package irc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/google/uuid"

	"github.com/dalnet/eirc/internal/config"
	"github.com/dalnet/eirc/internal/logger"
	"github.com/dalnet/eirc/internal/metrics"
)

// ErrConnect is returned by Run when the server cannot be reached
var ErrConnect = errors.New("failed to connect")

// Dialer opens the transport. *net.Dialer satisfies it.
type Dialer interface {
	Dial(network, address string) (net.Conn, error)
}

// Recorder keeps a history of trigger hits
type Recorder interface {
	Record(source, text string) error
}

// Session drives a single connection: registration, then read, parse,
// dispatch until the server closes the stream or I/O fails
type Session struct {
	cfg      config.Server
	id       uuid.UUID
	log      logger.Logger
	dialer   Dialer
	recorder Recorder

	connected bool
	out       *Writer
}

// Option configures a Session
type Option func(*Session)

// WithDialer replaces the default TCP dialer
func WithDialer(d Dialer) Option {
	return func(s *Session) {
		s.dialer = d
	}
}

// WithRecorder stores every trigger hit in r
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// NewSession creates a session for the given server
func NewSession(cfg config.Server, log logger.Logger, opts ...Option) *Session {
	id := uuid.New()
	s := &Session{
		cfg:    cfg,
		id:     id,
		log:    log.With("session", id.String()),
		dialer: &net.Dialer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies this session in the logs
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Connected reports whether the loop currently holds a transport
func (s *Session) Connected() bool {
	return s.connected
}

// Run connects to the configured server and serves the connection.
// It blocks until the server closes the stream (nil) or an I/O error occurs.
func (s *Session) Run() error {
	addr := s.cfg.Address()
	s.log.Info("Connecting", "address", addr)

	conn, err := s.dialer.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w to %s: %w", ErrConnect, addr, err)
	}
	defer conn.Close()

	s.log.Info("Connected", "address", addr)
	return s.Serve(conn)
}

// Serve registers on an already open transport and runs the read loop on it
func (s *Session) Serve(rw io.ReadWriter) error {
	s.connected = true
	metrics.Connected.Set(1)
	defer func() {
		s.connected = false
		metrics.Connected.Set(0)
	}()

	s.out = NewWriter(rw, s.log)
	if err := s.register(); err != nil {
		return err
	}

	r := bufio.NewReader(rw)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if herr := s.handleLine(line); herr != nil {
				return herr
			}
		}

		if errors.Is(err, io.EOF) {
			s.log.Info("Connection closed by server")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read from server: %w", err)
		}
	}
}

// register sends the NICK, USER, JOIN handshake
func (s *Session) register() error {
	lines := []string{
		"NICK " + s.cfg.Nickname,
		fmt.Sprintf("USER %s 0 * :%s", s.cfg.Username, realName),
		"JOIN " + strings.Join(s.cfg.Channels, " "),
	}
	for _, line := range lines {
		if err := s.out.Send(line); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
	}
	return nil
}

// handleLine parses and dispatches one line. Malformed lines are skipped,
// any other error ends the session.
func (s *Session) handleLine(line string) error {
	trimmed := strings.TrimRight(line, "\r\n")
	if trimmed == "" {
		return nil
	}

	msg := ParseMessage(line)
	s.log.Trace(">> " + trimmed)
	metrics.LinesReceived.WithLabelValues(commandLabel(msg.Command)).Inc()

	var err error
	if msg.Command == "" {
		err = msg.Validate(0)
	} else {
		err = s.dispatch(msg)
	}
	// A reply that cannot be framed came from server supplied params
	if errors.Is(err, ErrMalformedLine) || errors.Is(err, ErrInvalidLine) {
		metrics.MalformedLines.WithLabelValues(commandLabel(msg.Command)).Inc()
		s.log.Warn("Skipping malformed line", "error", err.Error())
		return nil
	}
	return err
}

func commandLabel(command string) string {
	if command == "" {
		return "none"
	}
	return command
}
