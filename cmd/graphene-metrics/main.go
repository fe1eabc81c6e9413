package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ironsheep/graphene-metrics/internal/analysis"
	"github.com/ironsheep/graphene-metrics/internal/config"
	"github.com/ironsheep/graphene-metrics/internal/logger"
	"github.com/ironsheep/graphene-metrics/internal/ocr"
	"github.com/ironsheep/graphene-metrics/internal/scale"
	"github.com/ironsheep/graphene-metrics/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// defaultConfigPath is read by every command when -config is not given. A
// missing file means the built-in defaults.
const defaultConfigPath = "graphene-metrics.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line in args and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stdout)
		return 2
	}

	switch args[0] {
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "graphene-metrics %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	case "--help", "-h", "help":
		printUsage(stdout)
		return 0
	}

	// Logs go to stderr; stdout carries reports and MCP traffic.
	log := logger.FromEnv(stderr)

	var err error
	switch args[0] {
	case "analyse", "analyze":
		err = runAnalyse(ctx, args[1:], stdout, log)
	case "batch":
		err = runBatch(ctx, args[1:], stdout, log)
	case "serve":
		err = runServe(ctx, args[1:], stdin, stdout, log)
	case "export-config":
		err = runExportConfig(args[1:], stdout)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("Command failed")
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "graphene-metrics - graphene micrograph analysis")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: graphene-metrics <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  analyse [-config file] [-json] <image>...    Analyse single images")
	fmt.Fprintln(w, "  batch [-config file] [-discard-errors] <dir> Analyse every TIFF image in a directory")
	fmt.Fprintln(w, "  serve [-config file]                         Run the MCP server on stdin/stdout")
	fmt.Fprintln(w, "  export-config [file]                         Write the default configuration")
	fmt.Fprintln(w, "  version                                      Print version information")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "The configuration defaults to %s in the working directory.\n", defaultConfigPath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Enable debug logging\n", logger.LevelEnv)
	fmt.Fprintf(w, "  %s=json    Log JSON lines instead of console output\n", logger.FormatEnv)
}

// loadConfig reads the configuration at path and warns when it was written
// by another version.
func loadConfig(path string, log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load(path, Version)
	if err != nil {
		return nil, err
	}
	if cfg.VersionMismatch(Version) {
		log.Warn().
			Str("config_version", cfg.ProgramVersion).
			Str("program_version", Version).
			Msg("Configuration was written by another version")
	}
	return cfg, nil
}

// textReader returns the OCR engine for cfg, nil when the scale is given.
func textReader(cfg *config.Config) scale.TextReader {
	if cfg.TextRecognition.OverrideScale {
		return nil
	}
	reader := ocr.NewTesseract()
	reader.TessdataPrefix = cfg.TextRecognition.TessdataPrefix
	return reader
}

func newAnalyzer(path string, log zerolog.Logger) (*analysis.Analyzer, error) {
	cfg, err := loadConfig(path, log)
	if err != nil {
		return nil, err
	}
	return analysis.New(cfg, textReader(cfg), log)
}

func runAnalyse(ctx context.Context, args []string, stdout io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("analyse", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "configuration file")
	asJSON := fs.Bool("json", false, "print the results as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("analyse needs at least one image")
	}

	a, err := newAnalyzer(*configPath, log)
	if err != nil {
		return err
	}

	var results []*analysis.Result
	for _, path := range fs.Args() {
		result, err := a.AnalyzeFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if *asJSON {
			results = append(results, result)
			continue
		}
		printResult(stdout, result)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return nil
}

func printResult(w io.Writer, r *analysis.Result) {
	sc := r.Scale
	fmt.Fprintf(w, "%s\n", r.Path)
	fmt.Fprintf(w, "  Scale: %.4f um/px (px: %d, um: %g, footer height: %d)\n",
		sc.MicrometersPerPixel, sc.PixelLength, sc.Micrometers, sc.FooterHeight)
	if pct, ok := r.ExclusionPercent(); ok {
		fmt.Fprintf(w, "  Area within range of graphene edge: %.2f%%\n", pct)
	}
	if r.Flakes != nil {
		fmt.Fprintf(w, "  Graphene flakes: %d of %d contours\n", len(r.Flakes.Flakes), r.Flakes.Candidates)
	}
	for _, path := range r.Artifacts {
		fmt.Fprintf(w, "  Wrote %s\n", path)
	}
}

func runBatch(ctx context.Context, args []string, stdout io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "configuration file")
	discard := fs.Bool("discard-errors", false, "skip images that fail instead of stopping")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("batch needs exactly one directory")
	}

	a, err := newAnalyzer(*configPath, log)
	if err != nil {
		return err
	}
	a.DiscardErrors = *discard

	batch, err := a.Batch(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Targets")
	for _, o := range batch.Outcomes {
		status := "ok"
		if o.Err != nil {
			status = "discarded: " + o.Err.Error()
		} else if pct, ok := o.Result.ExclusionPercent(); ok {
			status = fmt.Sprintf("%.2f%%", pct)
		}
		fmt.Fprintf(stdout, " - %d: %s (%s)\n", o.Index, o.Path, status)
	}

	if a.Config().BacteriaExclusion.Enabled {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Aggregated statistics:")
		fmt.Fprintf(stdout, " - Mean graphene edge exclusion area: %.2f%% (standard deviation: %.5f)\n",
			batch.Summary.Mean, batch.Summary.StdDev)
	}
	return nil
}

func runServe(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath, log)
	if err != nil {
		return err
	}

	log.Debug().Str("version", Version).Str("built", BuildTime).Str("commit", GitCommit).Msg("Starting MCP server")
	// Tools may give the scale per call, so a reader is always available.
	reader := ocr.NewTesseract()
	reader.TessdataPrefix = cfg.TextRecognition.TessdataPrefix
	return server.New(cfg, reader, Version, log).Run(ctx, stdin, stdout)
}

func runExportConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export-config", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := defaultConfigPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if err := config.WriteDefault(path, Version); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote default configuration to %s\n", path)
	return nil
}
