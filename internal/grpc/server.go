package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"readinghub/internal/apperr"
	"readinghub/internal/auth"
	"readinghub/internal/library"
	"readinghub/internal/readinglog"
	"readinghub/internal/stats"
	"readinghub/internal/streak"
)

type ctxKey struct{}

// Server exposes the reading core to internal callers over gRPC.
type Server struct {
	db       *sqlx.DB
	progress *readinglog.Service
	streak   *streak.Tracker
	log      *zap.SugaredLogger
}

func NewServer(db *sqlx.DB, progress *readinglog.Service, tracker *streak.Tracker, log *zap.SugaredLogger) *Server {
	return &Server{db: db, progress: progress, streak: tracker, log: log}
}

// NewGRPCServer builds a grpc.Server that requires a bearer token in the
// "authorization" metadata on every call.
func NewGRPCServer(s *Server, secret []byte) *gogrpc.Server {
	gs := gogrpc.NewServer(gogrpc.UnaryInterceptor(AuthInterceptor(secret)))
	RegisterReadingServiceServer(gs, s)
	return gs
}

func AuthInterceptor(secret []byte) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var token string
		if vals := md.Get("authorization"); len(vals) > 0 {
			token, _ = strings.CutPrefix(vals[0], "Bearer ")
		}
		if token == "" {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}
		claims, err := auth.ParseJWT(secret, strings.TrimSpace(token))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return handler(context.WithValue(ctx, ctxKey{}, claims.UserID), req)
	}
}

func userFrom(ctx context.Context) (string, error) {
	uid, _ := ctx.Value(ctxKey{}).(string)
	if uid == "" {
		return "", status.Error(codes.Unauthenticated, "no user in context")
	}
	return uid, nil
}

func (s *Server) GetSummary(ctx context.Context, _ *Empty) (*stats.Summary, error) {
	uid, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	items, err := library.ListForUser(ctx, s.db, uid)
	if err != nil {
		return nil, s.toStatus(err)
	}
	sum := stats.Summarize(items)
	return &sum, nil
}

func (s *Server) ListItems(ctx context.Context, _ *Empty) (*ListItemsResponse, error) {
	uid, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	items, err := library.ListForUser(ctx, s.db, uid)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &ListItemsResponse{Items: stats.ViewAll(items)}, nil
}

func (s *Server) UpdateProgress(ctx context.Context, req *UpdateProgressRequest) (*UpdateProgressResponse, error) {
	uid, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	in := library.ProgressInput{
		Title:          req.Title,
		Author:         req.Author,
		Topic:          req.Topic,
		NewCurrentPage: int(req.CurrentPage),
	}
	if req.TotalPages > 0 {
		total := int(req.TotalPages)
		in.TotalPages = &total
	}
	item, entry, err := s.progress.Record(ctx, uid, in)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &UpdateProgressResponse{
		Item:      stats.View(item),
		PagesRead: int32(entry.PagesRead),
		LogDate:   entry.Date,
	}, nil
}

func (s *Server) PingStreak(ctx context.Context, _ *Empty) (*StreakResponse, error) {
	uid, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.streak.Ping(ctx, uid)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &StreakResponse{
		StreakDays:       int32(res.StreakDays),
		RegistrationDate: res.RegistrationDate.Format(time.RFC3339),
	}, nil
}

func (s *Server) toStatus(err error) error {
	msg := apperr.Message(err)
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return status.Error(codes.InvalidArgument, msg)
	case apperr.KindNotFound:
		return status.Error(codes.NotFound, msg)
	case apperr.KindConflict:
		return status.Error(codes.Aborted, msg)
	case apperr.KindUnauthorized:
		return status.Error(codes.Unauthenticated, msg)
	case apperr.KindUpstream, apperr.KindUnavailable:
		return status.Error(codes.Unavailable, msg)
	default:
		s.log.Errorw("grpc call failed", "err", err)
		return status.Error(codes.Internal, msg)
	}
}
