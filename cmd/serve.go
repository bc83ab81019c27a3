package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/extractor"
	"github.com/facetrace/facetrace/internal/mailer"
	"github.com/facetrace/facetrace/internal/recognition"
	"github.com/facetrace/facetrace/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the FaceTrace web server.
The server accepts reference images, identifies faces in query photos,
and exposes the detection log over a JSON API.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (defaults to random)")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

// initIndex builds the in-memory HNSW index over the reference corpus.
// A failure is not fatal; identification falls back to a linear scan.
func initIndex(ctx context.Context, engine *recognition.Engine) {
	fmt.Println("Building in-memory HNSW index for face matching...")
	if err := engine.EnableIndex(ctx); err != nil {
		fmt.Printf("Warning: failed to build HNSW index: %v\n", err)
		fmt.Println("Identification will use a linear corpus scan (slower)")
		return
	}
	fmt.Println("HNSW index ready")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := recognition.NewEngine(db.References, db.Detections, cfg.Recognition.Threshold)
	if cfg.Database.HNSWEnabled {
		initIndex(context.Background(), engine)
	}

	ingestor := recognition.NewIngestor(db.References, cfg.Recognition.Dim)

	if cfg.Extractor.URL == "" {
		return fmt.Errorf("EXTRACTOR_URL environment variable is required")
	}

	port, host, sessionSecret := resolveServeHostPort(cmd)
	if sessionSecret != "" {
		cfg.Web.SessionSecret = sessionSecret
	}

	deps := web.Deps{
		Engine:      engine,
		Ingestor:    ingestor,
		Extractor:   extractor.NewHandle(cfg.Extractor.URL),
		Detections:  db.Detections,
		Users:       db.Users,
		OTPCodes:    db.OTPCodes,
		Mailer:      mailer.New(cfg.SMTP),
		SessionRepo: db.SessionRepo,
	}

	server := web.NewServer(cfg, deps, port, host)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting FaceTrace API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
