// Command labels lays out Avery Zweckform 3658 label sheets from a text
// file or a spreadsheet and writes the layout as JSON.
//
//	labels -activate ana@example.com:0FCC-1E00-0613-730B-2B91-F356
//	labels -in names.xlsx -lines 2 -font "Arial Narrow" -bold
//	labels -in names.txt -dry-run
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"labelcli/internal/config"
	apperrors "labelcli/internal/errors"
	"labelcli/internal/infrastructure"
	"labelcli/internal/layout"
	"labelcli/internal/license"
	"labelcli/internal/services"
	"labelcli/internal/textsource"
	"labelcli/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		if paths, perr := cfg.ResolvedPaths(); perr == nil {
			cfg.Paths.LicenseFile = paths.LicenseFile
			cfg.Paths.LogsDir = paths.LogsDir
			cfg.Logging.FilePath = paths.GetLogPath(config.LogFileName)
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, cfg, logger, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, "labels:", err)
		if errors.Is(err, apperrors.ErrNoLicense) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

type options struct {
	in       string
	out      string
	dryRun   bool
	activate string
	request  services.LayoutRequest
}

func parseFlags(args []string, defaults services.LayoutRequest) (*options, error) {
	opts := &options{request: defaults}
	fs := flag.NewFlagSet("labels", flag.ContinueOnError)
	fs.StringVar(&opts.in, "in", "-", "input .txt or .xlsx file, - for stdin")
	fs.StringVar(&opts.out, "out", "", "output JSON file (default labels_YYYYMMDD_HHMMSS.json)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print draw operations instead of writing JSON")
	fs.StringVar(&opts.activate, "activate", "", "activate a license given as email:key, then exit")
	fs.IntVar(&opts.request.LinesPerLabel, "lines", defaults.LinesPerLabel, "text lines per label (1-6)")
	fs.StringVar(&opts.request.FontFamily, "font", defaults.FontFamily, "font family")
	fs.BoolVar(&opts.request.Bold, "bold", defaults.Bold, "use the bold face")
	fs.Float64Var(&opts.request.UniversalPadding, "padding", defaults.UniversalPadding, "horizontal padding on both sides, mm")
	fs.Float64Var(&opts.request.LeftColumnExtra, "left-extra", defaults.LeftColumnExtra, "extra left padding for column 1, mm")
	fs.Float64Var(&opts.request.RightColumnExtra, "right-extra", defaults.RightColumnExtra, "extra right padding for column 3, mm")
	fs.Float64Var(&opts.request.VerticalPadding, "vpad", defaults.VerticalPadding, "top and bottom padding, mm")
	fs.IntVar(&opts.request.StartSize, "start-size", 0, "largest font size tried, 0 picks by lines per label")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, cfg *config.Config, logger *slog.Logger, now time.Time) error {
	ctx = infrastructure.EnsureTraceID(ctx)

	manager, err := license.NewManager(license.Config{
		Secret:      cfg.License.Secret,
		LicenseFile: cfg.Paths.LicenseFile,
		Window:      cfg.License.ValidationWindow,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	licenses := services.NewLicenseService(manager, nil, logger)

	engine := layout.NewEngine(layout.Avery3658(), layout.NewMetricsMeasurer())
	svc := services.NewLayoutService(engine, cfg.Layout, nil, logger)

	opts, err := parseFlags(args, svc.DefaultRequest())
	if err != nil {
		return err
	}

	if opts.activate != "" {
		return activate(ctx, licenses, opts.activate, stdout)
	}

	if err := licenses.RequireLicense(ctx); err != nil {
		return fmt.Errorf("%w: run labels -activate email:key first", err)
	}

	files := validation.NewFileValidator(logger)
	if opts.in != "-" {
		if err := files.ValidateInputFile(opts.in); err != nil {
			return err
		}
	}
	out := opts.out
	if out == "" {
		out = layout.DefaultOutputName(now)
	}
	if !opts.dryRun {
		if err := files.ValidateOutputFile(out); err != nil {
			return err
		}
	}

	lines, err := readLines(opts.in, stdin)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("%s: %w", opts.in, apperrors.ErrNoData)
	}
	opts.request.Lines = lines

	result, err := svc.Compute(ctx, opts.request)
	if err != nil {
		return err
	}

	if opts.dryRun {
		w := bufio.NewWriter(stdout)
		if err := layout.Replay(result, layout.NewTextSurface(w, layout.NewMetricsMeasurer())); err != nil {
			return err
		}
		return w.Flush()
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(stdout, "%d labels on %d pages written to %s\n", result.LabelCount(), len(result.Pages), out)
	return nil
}

// activate stores the license given as email:key and reports its status
func activate(ctx context.Context, licenses services.LicenseService, value string, stdout io.Writer) error {
	email, key, ok := strings.Cut(value, ":")
	if !ok {
		return fmt.Errorf("-activate %q: want email:key", value)
	}

	status, err := licenses.Activate(ctx, services.ActivationRequest{Email: email, Key: key})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, status.Message)
	return nil
}

func readLines(in string, stdin io.Reader) ([]string, error) {
	if in != "-" {
		return textsource.ReadFile(in)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return textsource.ParseText(string(data)), nil
}
