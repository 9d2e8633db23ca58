package jeux

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/jeux/internal/model"
	"github.com/udisondev/jeux/internal/protocol"
)

const (
	defaultReadTimeout  = 5 * time.Minute
	defaultWriteTimeout = 10 * time.Second
)

// Server accepts connections and runs one service loop per connection,
// dispatching packets per the wire protocol in package protocol.
type Server struct {
	Players  *model.PlayerRegistry
	Registry *ClientRegistry

	// ReadTimeout bounds how long a connection may sit idle between
	// packets before it is dropped. WriteTimeout bounds a single Send.
	// Zero means the package defaults apply.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	listener net.Listener
}

// NewServer creates a server backed by the given player and client
// registries, using the package's default read/write timeouts. Both
// registries must outlive the server.
func NewServer(players *model.PlayerRegistry, registry *ClientRegistry) *Server {
	return &Server{Players: players, Registry: registry}
}

// Run listens on addr and serves connections until ctx is cancelled, at
// which point it shuts down every live connection and waits for their
// service loops to return.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Addr returns the address the server is listening on, or nil before Run
// has been called.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections from ln until ctx is cancelled. Exposed
// separately from Run so tests can supply an in-process listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.listener = ln

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		s.Registry.ShutdownAll()
		return ln.Close()
	})

	g.Go(func() error {
		return s.acceptLoop(ctx, g, ln)
	})

	return g.Wait()
}

func (s *Server) acceptLoop(ctx context.Context, g *errgroup.Group, ln net.Listener) error {
	slog.Info("jeux server listening", "addr", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		g.Go(func() error {
			s.handleConnection(conn)
			return nil
		})
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	c := NewClient(conn)

	writeTimeout := s.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	c.SetWriteTimeout(writeTimeout)

	if err := s.Registry.Register(c); err != nil {
		slog.Warn("rejecting connection, registry full", "remote", conn.RemoteAddr())
		conn.Close()
		return
	}
	defer func() {
		c.Logout()
		s.Registry.Unregister(c)
		conn.Close()
	}()

	slog.Debug("client connected", "remote", conn.RemoteAddr())

	readTimeout := s.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			slog.Warn("setting read deadline", "remote", conn.RemoteAddr(), "error", err)
			return
		}
		h, payload, err := protocol.Recv(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				slog.Debug("client disconnected", "remote", conn.RemoteAddr())
			} else {
				slog.Warn("reading packet", "remote", conn.RemoteAddr(), "error", err)
			}
			return
		}

		r, dispatchErr := dispatch(c, s.Players, s.Registry, h, payload)
		if dispatchErr != nil {
			if errKind(dispatchErr) == KindIO {
				slog.Warn("dispatch failed", "remote", conn.RemoteAddr(), "error", dispatchErr)
				return
			}
			slog.Debug("nack", "remote", conn.RemoteAddr(), "type", h.Type, "error", dispatchErr)
			nack := protocol.NewHeader(protocol.Nack, h.ID, h.Role, 0)
			if err := c.Send(nack, nil); err != nil {
				slog.Warn("sending nack", "remote", conn.RemoteAddr(), "error", err)
				return
			}
			continue
		}

		out := protocol.NewHeader(r.typ, r.id, uint8(r.role), len(r.payload))
		if err := c.Send(out, r.payload); err != nil {
			slog.Warn("sending reply", "remote", conn.RemoteAddr(), "error", err)
			return
		}
	}
}
