package tcpsync

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"

	"readinghub/pkg/models"
)

// Server fans committed progress events out to every connected TCP monitor
// as newline-delimited JSON.
type Server struct {
	addr string
	log  *zap.SugaredLogger

	mu      sync.Mutex
	clients map[net.Conn]struct{}

	events chan models.ProgressEvent
}

func New(addr string, buffer int, log *zap.SugaredLogger) *Server {
	return &Server{
		addr:    addr,
		log:     log,
		clients: make(map[net.Conn]struct{}),
		events:  make(chan models.ProgressEvent, buffer),
	}
}

// Publish queues ev for broadcast. When the queue is full the event is
// dropped so request handlers never wait on slow monitors.
func (s *Server) Publish(ev models.ProgressEvent) {
	select {
	case s.events <- ev:
	default:
		s.log.Warnw("tcp sync queue full, dropping event", "user", ev.UserID, "item", ev.ItemID)
	}
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts monitors on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Infow("tcp sync listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	go s.broadcastLoop(ctx)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.closeAll()
				return nil
			}
			s.log.Warnw("tcp accept", "err", err)
			continue
		}
		s.addClient(conn)
		s.log.Infow("tcp monitor connected", "remote", conn.RemoteAddr().String())
		go s.readLoop(conn)
	}
}

func (s *Server) addClient(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[conn] = struct{}{}
}

func (s *Server) removeClient(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, conn)
	_ = conn.Close()
}

func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.Close()
		delete(s.clients, conn)
	}
}

// readLoop only detects disconnects; monitors never send anything useful.
func (s *Server) readLoop(conn net.Conn) {
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
	}
	s.removeClient(conn)
	s.log.Infow("tcp monitor disconnected", "remote", conn.RemoteAddr().String())
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			b, err := json.Marshal(ev)
			if err != nil {
				s.log.Errorw("tcp marshal", "err", err)
				continue
			}
			b = append(b, '\n')

			s.mu.Lock()
			for conn := range s.clients {
				if _, err := conn.Write(b); err != nil {
					delete(s.clients, conn)
					_ = conn.Close()
				}
			}
			s.mu.Unlock()
		}
	}
}
