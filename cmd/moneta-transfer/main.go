// Command moneta-transfer moves transaction batches in and out of the store
// from the command line, using the same import/export pipeline as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/config"
	"moneta/internal/core"
	"moneta/internal/fx"
	"moneta/internal/log"
	"moneta/internal/service"
	"moneta/internal/storage"
	"moneta/internal/transfer"
)

func main() {
	_ = godotenv.Load()

	var (
		mode     = flag.String("mode", "", "import or export")
		file     = flag.String("file", "", "file to read from (import) or write to (export); '-' for stdin/stdout")
		formatIn = flag.String("format", "csv", "csv or json")
		from     = flag.String("from", "", "only rows on or after this date (export)")
		to       = flag.String("to", "", "only rows on or before this date (export)")
		category = flag.String("category", "", "only rows in this category (export)")
		kind     = flag.String("kind", "", "only rows of this kind: expense or income (export)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load configuration:", err)
		os.Exit(1)
	}

	logger := log.New(log.ComponentTransfer, cfg.LogLevel)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	format, err := transfer.ParseFormat(*formatIn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		flag.Usage()
		os.Exit(2)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database:", err)
		os.Exit(1)
	}
	defer store.Close()

	rates := fx.NewClient(fx.ClientConfig{
		TTL:       cfg.RateCacheTTL,
		Timeout:   cfg.RateTimeout,
		CachePath: cfg.RateCachePath,
	})
	svc := service.New(store, rates, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch *mode {
	case "import":
		os.Exit(runImport(ctx, svc, *file, format))
	case "export":
		filter, err := buildFilter(*from, *to, *category, *kind)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		os.Exit(runExport(ctx, svc, *file, format, filter))
	default:
		fmt.Fprintln(os.Stderr, "missing or unknown -mode; want import or export")
		flag.Usage()
		os.Exit(2)
	}
}

func buildFilter(from, to, category, kind string) (core.Filter, error) {
	var f core.Filter
	var err error
	if from != "" {
		if f.From, err = core.ParseDate(from); err != nil {
			return core.Filter{}, fmt.Errorf("-from: %w", err)
		}
	}
	if to != "" {
		if f.To, err = core.ParseDate(to); err != nil {
			return core.Filter{}, fmt.Errorf("-to: %w", err)
		}
	}
	f.Category = category
	if kind != "" {
		k := core.Kind(kind)
		if k != core.Expense && k != core.Income {
			return core.Filter{}, fmt.Errorf("-kind: %w: %q", core.ErrInvalidKind, kind)
		}
		f.Kind = k
	}
	return f, nil
}

func runImport(ctx context.Context, svc *service.Service, file string, format transfer.Format) int {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "read input:", err)
		return 1
	}

	result, err := svc.Import(ctx, data, format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		return 1
	}

	for _, re := range result.RowErrors {
		fmt.Fprintf(os.Stderr, "row %d: %v\n", re.Row, re.Err)
	}
	fmt.Printf("imported %d, skipped %d, failed %d\n",
		len(result.Imported), result.Skipped, len(result.RowErrors))

	if len(result.RowErrors) > 0 {
		return 3
	}
	return 0
}

func runExport(ctx context.Context, svc *service.Service, file string, format transfer.Format, f core.Filter) int {
	data, err := svc.Export(ctx, f, format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		return 1
	}
	if file == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			fmt.Fprintln(os.Stderr, "write output:", err)
			return 1
		}
		return 0
	}
	if err := os.WriteFile(file, data, 0644); err != nil {
		fmt.Fprintln(os.Stderr, "write output:", err)
		return 1
	}
	fmt.Printf("wrote %s\n", file)
	return 0
}
