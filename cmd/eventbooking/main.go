package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Shrey5112/Event-Booking-Platform/internal/api"
	"github.com/Shrey5112/Event-Booking-Platform/internal/auth"
	"github.com/Shrey5112/Event-Booking-Platform/internal/booking"
	"github.com/Shrey5112/Event-Booking-Platform/internal/bus"
	"github.com/Shrey5112/Event-Booking-Platform/internal/config"
	"github.com/Shrey5112/Event-Booking-Platform/internal/db"
	"github.com/Shrey5112/Event-Booking-Platform/internal/fanout"
	"github.com/Shrey5112/Event-Booking-Platform/internal/metrics"
	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
	"github.com/Shrey5112/Event-Booking-Platform/internal/observability"
	"github.com/Shrey5112/Event-Booking-Platform/internal/payment"
	"github.com/Shrey5112/Event-Booking-Platform/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger installs the default logger. When logPath is set every
// level is also appended to that file; the returned cleanup closes it.
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	cfg, err := config.Load(os.Args[1:], os.LookupEnv, os.Stdout)
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger := slog.Default()

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DBPath, cfg.AdminEmail)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DBPath, cfg.AdminEmail, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = store.GetJWTSecret(context.Background(), database)
		if err != nil {
			return fmt.Errorf("getting JWT secret: %w", err)
		}
	}

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.Tracing.Endpoint, version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	m := metrics.New()
	verifier := &auth.Verifier{Secret: jwtSecret, DB: database}
	registry := fanout.NewRegistry(verifier, logger,
		fanout.WithQueueSize(cfg.Realtime.QueueSize),
		fanout.WithMetrics(m),
	)

	updates, err := bus.Open(cfg.Bus, logger)
	if err != nil {
		return fmt.Errorf("opening %s bus: %w", cfg.Bus.Driver, err)
	}

	runCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	busDone := make(chan struct{})
	go func() {
		defer close(busDone)
		err := updates.Run(runCtx, func(ctx context.Context, u model.BookingUpdate) {
			registry.Deliver(ctx, u)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("bus dispatcher stopped", "error", err)
		}
	}()
	slog.Info("lifecycle bus running", "driver", cfg.Bus.Driver)

	var payments payment.Gateway
	if cfg.Stripe.SecretKey != "" {
		payments = payment.NewStripe(cfg.Stripe, nil)
		slog.Info("payments enabled", "provider", "stripe", "currency", cfg.Stripe.Currency)
	} else {
		slog.Warn("payments disabled, no stripe secret key configured")
	}

	router := api.NewRouter(api.Deps{
		DB:            database,
		JWTSecret:     jwtSecret,
		Verifier:      verifier,
		Bookings:      booking.NewManager(store.SQL{DB: database}, updates, logger, m),
		Registry:      registry,
		Payments:      payments,
		Metrics:       m,
		ClientOrigin:  cfg.ClientOrigin,
		SecureCookies: strings.HasPrefix(cfg.ClientOrigin, "https://"),
	})

	// WriteTimeout stays zero: websocket connections are long-lived and
	// bound their own writes.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "version", version)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, draining bus")
	if err := updates.Close(); err != nil {
		slog.Error("closing bus", "error", err)
	}
	select {
	case <-busDone:
	case <-time.After(5 * time.Second):
		stopBus()
		<-busDone
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		slog.Error("flushing traces", "error", err)
	}
	return nil
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminEmail string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(err)
	}

	ctx := context.Background()
	if _, err := store.CreateUser(ctx, database, "Admin", adminEmail, hash, model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, email, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
