// Command jobs runs one periodic job and prints its result as JSON, for use
// from an external scheduler.
//
//	jobs refresh-tokens
//	jobs publish-overdue
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/contentflow/configs"
	"github.com/maheshrc27/contentflow/internal/app"
	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/transfer"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: jobs refresh-tokens|publish-overdue")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Sync()
	zlog := logging.GetLogger()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components := app.Build(cfg, db)

	var out any
	switch os.Args[1] {
	case "refresh-tokens":
		summary, err := components.TokenRefresh.Run(ctx)
		if err != nil {
			zlog.Error("token refresh failed", zap.Error(err))
			os.Exit(1)
		}
		out = transfer.RefreshTokensResponse{
			Message:    fmt.Sprintf("Refreshed %d of %d tokens", len(summary.Successful), len(summary.Successful)+len(summary.Failed)),
			Successful: summary.Successful,
			Failed:     summary.Failed,
		}
	case "publish-overdue":
		results, err := components.OverduePosts.Run(ctx)
		if results == nil {
			results = []models.PostOutcome{}
		}
		message := fmt.Sprintf("Processed %d overdue posts", len(results))
		if err != nil {
			zlog.Error("overdue scan failed", zap.Error(err))
			message = "Overdue scan failed: " + err.Error()
		}
		out = transfer.PublishOverdueResponse{Message: message, Results: results}
	default:
		fmt.Fprintf(os.Stderr, "unknown job %q\n", os.Args[1])
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		zlog.Fatal("Failed to write result", zap.Error(err))
	}
}
