package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/railwear"
	"github.com/banshee-data/railwear/internal/api"
	"github.com/banshee-data/railwear/internal/config"
	"github.com/banshee-data/railwear/internal/db"
	"github.com/banshee-data/railwear/internal/monitoring"
	"github.com/banshee-data/railwear/internal/report"
	"github.com/banshee-data/railwear/internal/version"
)

var (
	devMode     = flag.Bool("dev", false, "Serve ./static from disk instead of the embedded copy")
	listen      = flag.String("listen", ":8080", "Listen address")
	configPath  = flag.String("config", "", "Path to a JSON or YAML rail configuration (defaults built in)")
	dbPath      = flag.String("db", "", "Path to the SQLite history database (history disabled when empty)")
	maxSessions = flag.Int("max-sessions", 0, "Reports kept for chart redraws (0 uses the configured value)")
	sessionTTL  = flag.Duration("session-ttl", 30*time.Minute, "How long a report stays available for chart redraws (0 keeps until evicted)")
	verbose     = flag.Bool("verbose", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func loadConfig(path string) (*config.RailConfig, error) {
	if path == "" {
		return config.DefaultRailConfig(), nil
	}
	return config.LoadRailConfig(path)
}

func staticFS(dev bool) (fs.FS, error) {
	if dev {
		return os.DirFS("./static"), nil
	}
	return fs.Sub(railwear.StaticFiles, "static")
}

// newHandler assembles the API, chart and static routes plus, when history
// is enabled, the admin debug routes.
func newHandler(cfg *config.RailConfig, history *db.DB, sessions int, ttl time.Duration, static fs.FS) (http.Handler, error) {
	if sessions <= 0 {
		sessions = cfg.GetMaxSessions()
	}
	builder := report.NewBuilder(cfg)
	srv := api.NewServer(builder, report.NewStore(sessions, ttl)).WithStatic(static)
	if history != nil {
		srv.WithHistory(history)
	}

	mux := srv.ServeMux()
	if history != nil {
		if err := history.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return api.LoggingMiddleware(mux), nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("railwear", version.String())
		return
	}
	if flag.Arg(0) == "migrate" {
		if err := runMigrate(flag.Args()[1:], *dbPath, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	monitoring.SetVerbose(*verbose)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var history *db.DB
	if *dbPath != "" {
		history, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer history.Close()
	}

	static, err := staticFS(*devMode)
	if err != nil {
		log.Fatalf("failed to load static files: %v", err)
	}
	handler, err := newHandler(cfg, history, *maxSessions, *sessionTTL, static)
	if err != nil {
		log.Fatalf("failed to set up routes: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              *listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("railwear %s listening on %s", version.Version, *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
}
