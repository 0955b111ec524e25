package grpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"readinghub/internal/auth"
	"readinghub/internal/clock"
	"readinghub/internal/readinglog"
	"readinghub/internal/streak"
	"readinghub/internal/user"
	"readinghub/pkg/database"
)

var secret = []byte("grpc-secret")

func newClient(t *testing.T) (ReadingServiceClient, string) {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "grpc.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	u, err := user.CreateUser(context.Background(), db, user.Credentials{Email: "g@example.com", Password: "pw"}, time.Now())
	require.NoError(t, err)

	log := zap.NewNop().Sugar()
	clk := clock.SystemClock{}
	srv := NewServer(db, readinglog.NewService(db, clk, log, nil), streak.NewTracker(db, clk, log), log)

	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(srv, secret)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := gogrpc.NewClient("passthrough:///bufnet",
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	tok, err := auth.SignJWT(secret, u.ID, u.Email, time.Hour)
	require.NoError(t, err)
	return NewReadingServiceClient(conn), tok
}

func authed(tok string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func TestReadingServiceFlow(t *testing.T) {
	client, tok := newClient(t)
	ctx := authed(tok)

	up, err := client.UpdateProgress(ctx, &UpdateProgressRequest{Title: "Sapiens", TotalPages: 443, CurrentPage: 100})
	require.NoError(t, err)
	assert.Equal(t, int32(100), up.PagesRead)
	assert.Equal(t, 23, up.Item.Progress)
	assert.Equal(t, "reading", up.Item.Status)

	sum, err := client.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalBooks)
	assert.Equal(t, 443, sum.TotalPages)

	list, err := client.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Sapiens", list.Items[0].Title)

	ping, err := client.PingStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ping.StreakDays)
	assert.NotEmpty(t, ping.RegistrationDate)
}

func TestReadingServiceErrors(t *testing.T) {
	client, tok := newClient(t)

	_, err := client.GetSummary(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.UpdateProgress(authed(tok), &UpdateProgressRequest{CurrentPage: 4})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
