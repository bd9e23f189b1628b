package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"attendsum/internal/aggregation"
	"attendsum/internal/config"
	"attendsum/internal/exporter"
	"attendsum/internal/infrastructure"
	"attendsum/internal/services"
)

const maxConcurrentFiles = 4

func main() {
	inPath := flag.String("in", "", "input attendee export (.csv or .xlsx); additional files may follow as arguments")
	outDir := flag.String("out", "", "output directory for summary files (defaults to each input's directory)")
	sourceName := flag.String("source", "", "export source: growthflow or webinarjam")
	configPath := flag.String("config", "", "optional config file path")
	flag.Parse()

	inputs := flag.Args()
	if *inPath != "" {
		inputs = append([]string{*inPath}, inputs...)
	}
	if len(inputs) == 0 || *sourceName == "" {
		fmt.Fprintln(os.Stderr, "usage: summarize -source <growthflow|webinarjam> [-out <dir>] [-config <file>] <file>...")
		os.Exit(2)
	}

	source, err := aggregation.ParseSource(*sourceName)
	if err != nil {
		slog.Error("invalid source", "source", *sourceName, "error", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		defaults := config.Default()
		cfg = &defaults
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	service := services.NewSummaryService(nil, logger)
	writer := exporter.NewWriter(logger)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(maxConcurrentFiles)

	for _, input := range inputs {
		input := input
		g.Go(func() error {
			return summarizeFile(ctx, service, writer, input, *outDir, source, logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("all summaries written", slog.Int("file_count", len(inputs)))
}

// summarizeFile runs the full pipeline for one export file and writes the
// summary next to it, or into outDir when set.
func summarizeFile(ctx context.Context, service *services.SummaryService, writer *exporter.Writer, input, outDir string, source aggregation.Source, logger *slog.Logger) error {
	file, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer file.Close()

	result, err := service.Process(ctx, file, filepath.Base(input), source)
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", input, err)
	}

	target := outputPath(input, outDir, result)
	if err := writer.WriteFile(target, result.Summaries); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	logger.Info("summary written",
		slog.String("source", string(result.Source)),
		slog.String("input", input),
		slog.String("output", target),
		slog.Int("input_rows", result.InputRows),
		slog.Int("summary_rows", len(result.Summaries)))

	return nil
}

// outputPath derives the summary file location from the input name so that
// multiple inputs never collide: <base>_summary.<suggested ext>.
func outputPath(input, outDir string, result *services.Result) string {
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name := fmt.Sprintf("%s_summary.%s", base, string(result.SuggestedForm))
	return filepath.Join(dir, name)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
