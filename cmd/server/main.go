package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/reflection"

	"readinghub/internal/clock"
	"readinghub/internal/config"
	grpcserver "readinghub/internal/grpc"
	"readinghub/internal/httpapi"
	"readinghub/internal/logger"
	"readinghub/internal/readinglog"
	"readinghub/internal/recommend"
	"readinghub/internal/reminder"
	"readinghub/internal/streak"
	"readinghub/internal/tcpsync"
	"readinghub/internal/udpnotify"
	"readinghub/internal/websocket"
	"readinghub/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.DBDriver == database.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.SystemClock{}

	tcpServer := tcpsync.New(cfg.TCPAddr, 100, log)
	udpServer := udpnotify.New(cfg.UDPAddr, []byte(cfg.JWTSecret), log)
	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	go func() {
		if err := tcpServer.Start(ctx); err != nil {
			log.Errorw("tcp sync stopped", "err", err)
		}
	}()
	go func() {
		if err := udpServer.Start(ctx); err != nil {
			log.Errorw("udp notify stopped", "err", err)
		}
	}()

	progress := readinglog.NewService(db, clk, log, readinglog.MultiSink{tcpServer, udpServer, hub})
	tracker := streak.NewTracker(db, clk, log)

	ai, err := newGateway(cfg, log)
	if err != nil {
		return err
	}

	sched := reminder.New(db, clk, udpServer, log, cfg.ReminderAt)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start reminders: %w", err)
	}
	defer sched.Stop()

	grpcServer := grpcserver.NewGRPCServer(grpcserver.NewServer(db, progress, tracker, log), []byte(cfg.JWTSecret))
	reflection.Register(grpcServer)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	go func() {
		log.Infow("grpc listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Errorw("grpc stopped", "err", err)
		}
	}()
	defer grpcServer.GracefulStop()

	router := httpapi.NewRouter(&httpapi.Deps{
		DB:        db,
		Clock:     clk,
		Log:       log,
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  cfg.TokenTTL,
		Progress:  progress,
		Streak:    tracker,
		AI:        ai,
		Notify:    udpServer,
		Hub:       hub,
		Admins:    cfg.AdminEmails,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("http api listening", "addr", cfg.HTTPAddr, "env", cfg.Env, "ai", cfg.AIEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newGateway returns a disabled gateway when no API key is configured, so
// the AI endpoints answer 503 instead of failing at startup.
func newGateway(cfg *config.Config, log *zap.SugaredLogger) (*recommend.Gateway, error) {
	if !cfg.AIEnabled() {
		log.Warn("BIGMODEL_API_KEY not set, AI endpoints disabled")
		return recommend.NewGateway(nil, log), nil
	}
	search, err := recommend.NewChatClient(cfg.AIAPIKey, cfg.AIAPIURL, cfg.AIModel, cfg.AITimeout)
	if err != nil {
		return nil, fmt.Errorf("ai client: %w", err)
	}
	g := recommend.NewGateway(search, log)
	g.Plan = search.WithTemperature(0.7)
	return g, nil
}
