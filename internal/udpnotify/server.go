package udpnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"readinghub/internal/auth"
	"readinghub/pkg/models"
)

const (
	TypeNotification = "notification"
	TypeCompleted    = "completed"
	TypeReminder     = "reminder"
)

type Notification struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Server keeps UDP subscribers and pushes notifications to them.
//
// Protocol: "SUBSCRIBE" receives untargeted broadcasts only,
// "SUBSCRIBE <jwt>" also receives notifications addressed to the token's
// user, "UNSUBSCRIBE" removes the sender. A bad token is ignored.
type Server struct {
	addr   string
	secret []byte
	log    *zap.SugaredLogger

	mu      sync.Mutex
	clients map[string]subscriber // key = ip:port
	conn    *net.UDPConn
}

type subscriber struct {
	addr   *net.UDPAddr
	userID string
}

func New(addr string, secret []byte, log *zap.SugaredLogger) *Server {
	return &Server{
		addr:    addr,
		secret:  secret,
		log:     log,
		clients: make(map[string]subscriber),
	}
}

func (s *Server) Start(ctx context.Context) error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, conn)
}

func (s *Server) Serve(ctx context.Context, conn *net.UDPConn) error {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.log.Infow("udp notify listening", "addr", conn.LocalAddr().String())

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, clientAddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warnw("udp read", "err", err)
			continue
		}
		s.handle(strings.TrimSpace(string(buf[:n])), clientAddr)
	}
}

func (s *Server) handle(msg string, from *net.UDPAddr) {
	cmd, arg, _ := strings.Cut(msg, " ")
	switch strings.ToUpper(cmd) {
	case "SUBSCRIBE":
		var userID string
		if token := strings.TrimSpace(arg); token != "" {
			claims, err := auth.ParseJWT(s.secret, token)
			if err != nil {
				s.log.Warnw("udp subscribe rejected", "remote", from.String(), "err", err)
				return
			}
			userID = claims.UserID
		}
		s.mu.Lock()
		s.clients[from.String()] = subscriber{addr: from, userID: userID}
		total := len(s.clients)
		s.mu.Unlock()
		s.log.Infow("udp subscribed", "remote", from.String(), "user", userID, "total", total)
	case "UNSUBSCRIBE":
		s.mu.Lock()
		delete(s.clients, from.String())
		total := len(s.clients)
		s.mu.Unlock()
		s.log.Infow("udp unsubscribed", "remote", from.String(), "total", total)
	}
}

func (s *Server) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Send delivers n to its recipients. Notifications with no user go to
// every subscriber, addressed ones only to that user's authenticated
// subscribers. It returns how many datagrams were written.
func (s *Server) Send(n Notification) int {
	if n.Timestamp == 0 {
		n.Timestamp = time.Now().Unix()
	}
	b, err := json.Marshal(n)
	if err != nil {
		s.log.Errorw("udp marshal", "err", err)
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		s.log.Warnw("udp conn not started yet")
		return 0
	}
	sent := 0
	for key, sub := range s.clients {
		if n.UserID != "" && sub.userID != n.UserID {
			continue
		}
		if _, err := s.conn.WriteToUDP(b, sub.addr); err != nil {
			s.log.Warnw("udp send failed", "remote", key, "err", err)
			continue
		}
		sent++
	}
	return sent
}

func (s *Server) Broadcast(message string) int {
	return s.Send(Notification{Type: TypeNotification, Message: message})
}

// Remind tells userID how many pages are left for today's goal.
func (s *Server) Remind(userID string, remaining, goal int) int {
	return s.Send(Notification{
		Type:    TypeReminder,
		UserID:  userID,
		Message: fmt.Sprintf("%d of %d pages left for today's reading goal", remaining, goal),
	})
}

// Publish announces items that were just completed; other progress events
// are ignored.
func (s *Server) Publish(ev models.ProgressEvent) {
	if !ev.JustCompleted {
		return
	}
	s.Send(Notification{
		Type:    TypeCompleted,
		UserID:  ev.UserID,
		Message: fmt.Sprintf("Finished %q (%d pages)", ev.Title, ev.TotalPages),
	})
}
