// Command playlist2csv runs one playlist through the analysis pipeline and
// writes the cleaned table as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/adapters/csvfile"
	"github.com/ewilliams-labs/encore/internal/adapters/spotify"
	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/services"
	"github.com/ewilliams-labs/encore/internal/logging"
)

func main() {
	link := flag.String("link", "", "Spotify playlist link")
	out := flag.String("out", "", "CSV output path (default EXPORT_PATH)")
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	if *link == "" {
		fmt.Fprintln(os.Stderr, "usage: playlist2csv -link <playlist url> [-out path]")
		os.Exit(2)
	}

	if err := run(*link, *out, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "playlist2csv: %v\n", err)
		os.Exit(1)
	}
}

func run(link, out, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if out != "" {
		cfg.Export.Path = out
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer := services.NewAnalyzer(
		spotify.NewClient(cfg.Spotify, cfg.HTTPClient, logger),
		csvfile.NewWriter(cfg.Export, logger),
		nil,
		cfg.Export,
		logger,
	)

	analysis, err := analyzer.Analyze(ctx, link)
	if err != nil {
		return err
	}

	logger.Info("playlist exported",
		zap.String("playlist_id", analysis.PlaylistID),
		zap.String("name", analysis.Info.Name),
		zap.Int("rows", len(analysis.Table.Rows)),
		zap.String("path", analysis.CSVPath))
	fmt.Println(analysis.CSVPath)
	return nil
}
