package tcpsync

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readinghub/pkg/models"
)

func TestBroadcastToMonitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := New("", 8, zap.NewNop().Sugar())
	go func() { _ = srv.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	srv.Publish(models.ProgressEvent{UserID: "u1", Title: "Sapiens", PagesRead: 100, CurrentPage: 100, TotalPages: 443, Status: "reading"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var got models.ProgressEvent
	require.NoError(t, json.Unmarshal(line, &got))
	assert.Equal(t, "Sapiens", got.Title)
	assert.Equal(t, 100, got.PagesRead)
}

func TestPublishDropsWhenFull(t *testing.T) {
	srv := New("", 1, zap.NewNop().Sugar())
	srv.Publish(models.ProgressEvent{Title: "a"})
	srv.Publish(models.ProgressEvent{Title: "b"})
	assert.Len(t, srv.events, 1)
}
