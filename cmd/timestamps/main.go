// Command timestamps demonstrates singleton sharing across transient
// resolutions. It resolves a transient service twice, pausing in between,
// and prints the creation time of the singleton both resolutions share:
//
//	TIMESTAMPS_DELAY=1s go run ./cmd/timestamps
//
// Settings are read from the environment, or from a .env file in the working
// directory when present.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ARTM2000/ioc"
)

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

type SingletonService interface {
	CreatedAt() time.Time
}

type singletonService struct {
	created time.Time
}

func (s *singletonService) CreatedAt() time.Time { return s.created }

type Service interface {
	CreatedAt() time.Time
}

type service struct {
	singleton SingletonService
}

func (s *service) CreatedAt() time.Time { return s.singleton.CreatedAt() }

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func NewSingletonService() *singletonService {
	return &singletonService{created: time.Now()}
}

func NewService(singleton SingletonService) *service {
	return &service{singleton: singleton}
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

type config struct {
	Delay    time.Duration
	LogLevel slog.Level
}

func loadConfig() (config, error) {
	// Non-fatal: .env is optional.
	_ = godotenv.Load()

	cfg := config{
		Delay:    2 * time.Second,
		LogLevel: slog.LevelInfo,
	}

	if v := env("TIMESTAMPS_DELAY", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid TIMESTAMPS_DELAY: %w", err)
		}
		cfg.Delay = d
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		return cfg, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(cfg, logger, os.Stdout); err != nil {
		logger.Error("Demo failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger, w io.Writer) error {
	c := ioc.New(ioc.WithLogger(logger))

	// Registration order does not matter.
	if err := ioc.RegisterTransient[Service](c, NewService); err != nil {
		return err
	}
	if err := ioc.RegisterSingleton[SingletonService](c, NewSingletonService); err != nil {
		return err
	}

	svc, err := ioc.Resolve[Service](c)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, svc.CreatedAt().Format(time.RFC3339Nano))

	time.Sleep(cfg.Delay)

	svc, err = ioc.Resolve[Service](c)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, svc.CreatedAt().Format(time.RFC3339Nano))

	return nil
}
