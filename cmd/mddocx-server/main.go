package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"pkt.systems/mddocx"
	"pkt.systems/mddocx/docx"
	"pkt.systems/version"
)

const (
	defaultPort    = "5000"
	defaultMaxBody = 32 << 20
)

func init() {
	version.SetDefaultModule("pkt.systems/mddocx")
}

type serverConfig struct {
	addr    string
	maxBody int64
	missing mddocx.MissingImagePolicy
	apiKey  string
	theme   docx.Theme
	docx    docx.Config
}

func main() {
	var (
		addr          string
		maxBody       int64
		missingImages string
		apiKey        string
		themeName     string
		pageSize      string
		logLevel      string
	)
	flags := pflag.NewFlagSet("mddocx-server", pflag.ExitOnError)
	flags.StringVar(&addr, "addr", "", "Listen address (default :$PORT or :"+defaultPort+")")
	flags.Int64Var(&maxBody, "max-body", defaultMaxBody, "Maximum request body in bytes")
	flags.StringVar(&missingImages, "missing-images", "omit", "Unresolved image references: omit|placeholder")
	flags.StringVar(&apiKey, "api-key", "", "Bearer token required on all routes but /health")
	flags.StringVar(&themeName, "theme", "", "Default colour theme")
	flags.StringVar(&pageSize, "page-size", docx.DefaultConfig().PageSize, "Default page size")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: mddocx-server [flags]\n\nFlags:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := loadConfig(os.Getenv, addr, maxBody, missingImages, apiKey, themeName, pageSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid --log-level %q\n", logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           newServer(logger, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", cfg.addr,
			"version", version.Current(),
			"missing_images", cfg.missing.String(),
			"theme", cfg.theme.Name(),
			"auth", cfg.apiKey != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// newServer builds the handler chain: recovery, auth, logging, routes.
func newServer(logger *slog.Logger, cfg serverConfig) http.Handler {
	h := newHandler(logger, cfg)
	var handler http.Handler = h.routes()
	handler = logMiddleware(logger, handler)
	handler = authMiddleware(cfg.apiKey, handler)
	handler = recoveryMiddleware(logger, handler)
	return handler
}

// loadConfig combines flag values with environment overrides. Environment
// variables win when set: MDDOCX_ADDR (or PORT), MDDOCX_MAX_BODY,
// MDDOCX_MISSING_IMAGES, MDDOCX_API_KEY.
func loadConfig(getenv func(string) string, addr string, maxBody int64, missing, apiKey, themeName, pageSize string) (serverConfig, error) {
	if v := getenv("MDDOCX_ADDR"); v != "" {
		addr = v
	} else if addr == "" {
		port := getenv("PORT")
		if port == "" {
			port = defaultPort
		}
		addr = ":" + port
	}
	if v := getenv("MDDOCX_MAX_BODY"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			return serverConfig{}, fmt.Errorf("MDDOCX_MAX_BODY must be a positive integer, got %q", v)
		}
		maxBody = n
	}
	if maxBody <= 0 {
		return serverConfig{}, fmt.Errorf("max body must be positive")
	}
	if v := getenv("MDDOCX_MISSING_IMAGES"); v != "" {
		missing = v
	}
	policy, err := mddocx.ParseMissingImagePolicy(missing)
	if err != nil {
		return serverConfig{}, err
	}
	if v := getenv("MDDOCX_API_KEY"); v != "" {
		apiKey = v
	}
	theme, ok := docx.ThemeByName(themeName)
	if !ok {
		return serverConfig{}, fmt.Errorf("unknown theme %q (available: %s)", themeName, strings.Join(docx.AvailableThemes(), ", "))
	}
	dc := docx.DefaultConfig()
	dc.PageSize = pageSize
	return serverConfig{
		addr:    addr,
		maxBody: maxBody,
		missing: policy,
		apiKey:  apiKey,
		theme:   theme,
		docx:    dc,
	}, nil
}
