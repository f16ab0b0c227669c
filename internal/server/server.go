// Package server speaks RESP2 over TCP and hands every command line to the
// command service.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"runtime/debug"
	"strings"
	"sync"

	"typed-kv-service/internal/auth"
	"typed-kv-service/internal/core/ports"
	"typed-kv-service/internal/core/service"
	"typed-kv-service/internal/observability"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/tidwall/resp"
)

var (
	// ErrServerClosed is returned by Serve after Close.
	ErrServerClosed = errors.New("server closed")

	errInternal = errors.New("internal error")
)

// Server accepts RESP connections. Each connection runs its commands in order
// on its own goroutine and keeps its own authentication state.
type Server struct {
	svc    ports.CommandService
	auth   *auth.Authenticator
	logger hclog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]net.Conn
	closed   bool
	wg       sync.WaitGroup
}

func New(svc ports.CommandService, authn *auth.Authenticator, logger hclog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		svc:    svc,
		auth:   authn,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[string]net.Conn),
	}
}

// ListenAndServe listens on addr and serves until Close.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Close is called.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("listening", "addr", ln.Addr().String(), "auth", s.auth.Required())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			return err
		}
		id := uuid.NewString()
		if !s.track(id, conn) {
			conn.Close()
			return ErrServerClosed
		}
		go s.handle(id, conn)
	}
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting, drops every open connection and waits for their
// goroutines to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) track(id string, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[id] = conn
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
	s.wg.Done()
}

// session is the per-connection state.
type session struct {
	authed bool
}

func (s *Server) handle(id string, conn net.Conn) {
	log := s.logger.With("conn", id, "remote", conn.RemoteAddr().String())
	observability.ConnectedClients.Inc()
	defer func() {
		conn.Close()
		observability.ConnectedClients.Dec()
		s.untrack(id)
		log.Debug("client disconnected")
	}()
	log.Debug("client connected")

	sess := &session{authed: !s.auth.Required()}
	rd := resp.NewReader(conn)
	bw := bufio.NewWriter(conn)

	for {
		v, _, err := rd.ReadValue()
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.isClosed() {
				log.Debug("read failed", "error", err)
			}
			return
		}

		args, ok := commandArgs(v)
		var (
			reply resp.Value
			quit  bool
		)
		if ok {
			reply, quit = s.dispatch(sess, args)
		} else {
			reply = errorValue("ERR Protocol error: expected a non-empty array of bulk strings")
		}

		if err := write(bw, reply); err != nil {
			log.Debug("write failed", "error", err)
			return
		}
		if quit {
			return
		}
	}
}

// dispatch answers the connection-level commands itself and forwards the
// rest to the command service.
func (s *Server) dispatch(sess *session, args []string) (resp.Value, bool) {
	switch strings.ToLower(args[0]) {
	case "quit":
		return resp.SimpleStringValue("OK"), true
	case "hello":
		// RESP3 is not spoken; clients fall back to RESP2 and AUTH.
		return errorValue("NOPROTO unsupported protocol version"), false
	case "auth":
		return s.authenticate(sess, args), false
	}

	if !sess.authed {
		return errorValue(service.ErrorString(auth.ErrNoAuth)), false
	}
	if strings.EqualFold(args[0], "client") {
		return resp.SimpleStringValue("OK"), false
	}

	reply, err := s.execute(args)
	if err != nil {
		return errorValue(service.ErrorString(err)), false
	}
	return toRESP(reply), false
}

// execute runs one command and turns a panic into an error reply, so a
// faulty command cannot take the process down.
func (s *Server) execute(args []string) (reply ports.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("command panicked", "command", args[0], "panic", r, "stack", string(debug.Stack()))
			err = errInternal
		}
	}()
	return s.svc.Execute(s.ctx, args)
}

// authenticate handles AUTH password and AUTH username password. The
// username is not checked; there is a single shared credential.
func (s *Server) authenticate(sess *session, args []string) resp.Value {
	if len(args) != 2 && len(args) != 3 {
		return errorValue("ERR wrong number of arguments for 'auth' command")
	}
	if err := s.auth.Check(args[len(args)-1]); err != nil {
		return errorValue(service.ErrorString(err))
	}
	sess.authed = true
	return resp.SimpleStringValue("OK")
}

func commandArgs(v resp.Value) ([]string, bool) {
	if v.Type() != resp.Array {
		return nil, false
	}
	elems := v.Array()
	if len(elems) == 0 {
		return nil, false
	}
	args := make([]string, len(elems))
	for i, e := range elems {
		switch e.Type() {
		case resp.BulkString, resp.SimpleString:
			args[i] = e.String()
		default:
			return nil, false
		}
	}
	return args, true
}

func toRESP(r ports.Reply) resp.Value {
	switch r.Kind {
	case ports.StatusReply:
		return resp.SimpleStringValue(r.Str)
	case ports.BulkReply:
		return resp.StringValue(r.Str)
	case ports.IntegerReply:
		return resp.IntegerValue(int(r.Int))
	case ports.ArrayReply:
		vals := make([]resp.Value, len(r.Elems))
		for i, e := range r.Elems {
			vals[i] = toRESP(e)
		}
		return resp.ArrayValue(vals)
	default:
		return resp.NullValue()
	}
}

func errorValue(msg string) resp.Value {
	return resp.ErrorValue(errors.New(msg))
}

func write(bw *bufio.Writer, v resp.Value) error {
	b, err := v.MarshalRESP()
	if err != nil {
		return err
	}
	if _, err := bw.Write(b); err != nil {
		return err
	}
	return bw.Flush()
}
