package udpnotify

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readinghub/internal/auth"
	"readinghub/pkg/models"
)

var testSecret = []byte("udp-secret")

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.SignJWT(testSecret, userID, userID+"@example.com", time.Hour)
	require.NoError(t, err)
	return tok
}

func startServer(t *testing.T) (*Server, *net.UDPAddr) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	srv := New("", testSecret, zap.NewNop().Sugar())
	go func() { _ = srv.Serve(ctx, conn) }()
	return srv, conn.LocalAddr().(*net.UDPAddr)
}

func subscribe(t *testing.T, srv *Server, addr *net.UDPAddr, msg string, want int) *net.UDPConn {
	t.Helper()
	c, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	_, err = c.Write([]byte(msg))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.SubscriberCount() == want }, 2*time.Second, 10*time.Millisecond)
	return c
}

func read(t *testing.T, c *net.UDPConn) Notification {
	t.Helper()
	buf := make([]byte, 2048)
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := c.Read(buf)
	require.NoError(t, err)
	var got Notification
	require.NoError(t, json.Unmarshal(buf[:n], &got))
	return got
}

func assertSilent(t *testing.T, c *net.UDPConn) {
	t.Helper()
	buf := make([]byte, 2048)
	_ = c.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, err := c.Read(buf)
	assert.Error(t, err, "expected no datagram")
}

func TestBroadcastAndTargeted(t *testing.T) {
	srv, addr := startServer(t)
	anon := subscribe(t, srv, addr, "SUBSCRIBE", 1)
	alice := subscribe(t, srv, addr, "subscribe "+token(t, "alice"), 2)

	assert.Equal(t, 2, srv.Broadcast("maintenance at noon"))
	assert.Equal(t, "maintenance at noon", read(t, anon).Message)
	assert.Equal(t, TypeNotification, read(t, alice).Type)

	assert.Equal(t, 0, srv.Remind("bob", 10, 20))

	srv.Publish(models.ProgressEvent{UserID: "alice", Title: "Emma", TotalPages: 300, JustCompleted: true})
	got := read(t, alice)
	assert.Equal(t, TypeCompleted, got.Type)
	assert.Equal(t, "alice", got.UserID)
	assertSilent(t, anon)
}

func TestUserNotificationsStayPrivate(t *testing.T) {
	srv, addr := startServer(t)
	anon := subscribe(t, srv, addr, "SUBSCRIBE", 1)
	alice := subscribe(t, srv, addr, "SUBSCRIBE "+token(t, "alice"), 2)
	bob := subscribe(t, srv, addr, "SUBSCRIBE "+token(t, "bob"), 3)

	srv.Publish(models.ProgressEvent{UserID: "bob", Title: "Private Diary", TotalPages: 10, JustCompleted: true})
	got := read(t, bob)
	assert.Equal(t, TypeCompleted, got.Type)
	assert.Contains(t, got.Message, "Private Diary")
	assertSilent(t, anon)
	assertSilent(t, alice)

	assert.Equal(t, 1, srv.Remind("alice", 5, 20))
	assert.Equal(t, TypeReminder, read(t, alice).Type)
	assertSilent(t, bob)
}

func TestSubscribeRejectsBadToken(t *testing.T) {
	srv, addr := startServer(t)
	subscribe(t, srv, addr, "SUBSCRIBE", 1)

	c, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	_, err = c.Write([]byte("SUBSCRIBE bob"))
	require.NoError(t, err)

	forged, err := auth.SignJWT([]byte("other-secret"), "bob", "bob@example.com", time.Hour)
	require.NoError(t, err)
	_, err = c.Write([]byte("SUBSCRIBE " + forged))
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, srv.SubscriberCount())
	assert.Equal(t, 0, srv.Remind("bob", 1, 2))
}

func TestUnsubscribe(t *testing.T) {
	srv, addr := startServer(t)
	c := subscribe(t, srv, addr, "SUBSCRIBE", 1)
	_, err := c.Write([]byte("UNSUBSCRIBE"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, srv.Broadcast("nobody"))
}

func TestSendBeforeStart(t *testing.T) {
	srv := New(":0", testSecret, zap.NewNop().Sugar())
	assert.Equal(t, 0, srv.Broadcast("early"))
}
