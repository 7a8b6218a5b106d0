package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/alejandrodnm/signalroom/config"
	"github.com/alejandrodnm/signalroom/internal/adapters/csvfile"
	"github.com/alejandrodnm/signalroom/internal/adapters/notify"
	"github.com/alejandrodnm/signalroom/internal/adapters/storage"
	"github.com/alejandrodnm/signalroom/internal/adapters/textlog"
	"github.com/alejandrodnm/signalroom/internal/aggregator"
	"github.com/alejandrodnm/signalroom/internal/analyzer"
	"github.com/alejandrodnm/signalroom/internal/classifier"
	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/alejandrodnm/signalroom/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	input := flag.String("input", "", "path to the CSV export or text log (overrides config)")
	source := flag.String("source", "", "input format: csv|textlog|db (overrides config)")
	from := flag.String("from", "", "first day to include, YYYY-MM-DD")
	to := flag.String("to", "", "last day to include, YYYY-MM-DD")
	today := flag.Bool("today", false, "only include today's messages")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full report tables (default: compact 1-line)")
	importMode := flag.Bool("import", false, "import the input file into the database and exit")
	listen := flag.Bool("listen", false, "listen to the Telegram room, store messages and publish scheduled reports")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *input != "" {
		cfg.Input.Path = *input
	}
	if *source != "" {
		cfg.Input.Format = *source
	}
	if *table {
		cfg.Report.Table = true
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	loc, _ := cfg.Location() // ya validado
	model, _ := cfg.PayoutModel()

	rng, err := parseRange(*from, *to, *today, loc)
	if err != nil {
		slog.Error("invalid date range", "err", err)
		os.Exit(1)
	}

	cls, err := classifier.New(cfg.Classifier)
	if err != nil {
		slog.Error("invalid classifier patterns", "err", err)
		os.Exit(1)
	}
	agg := aggregator.New(model)

	slog.Info("signalroom starting",
		"config", *configPath,
		"input", cfg.Input.Path,
		"format", cfg.Input.Format,
		"range", rng.String(),
		"timezone", loc.String(),
		"import", *importMode,
		"listen", *listen,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *importMode:
		err = runImport(ctx, cfg, loc, rng)
	case *listen:
		err = runListen(ctx, cfg, loc, cls, agg)
	default:
		err = runReport(ctx, cfg, loc, rng, cls, agg)
	}
	if err != nil {
		slog.Error("signalroom exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("signalroom stopped cleanly")
}

// runReport lee la fuente configurada una vez e imprime el reporte.
func runReport(ctx context.Context, cfg *config.Config, loc *time.Location, rng domain.DateRange, cls *classifier.Classifier, agg *aggregator.Aggregator) error {
	src, closeSrc, err := openSource(cfg, loc)
	if err != nil {
		return err
	}
	defer closeSrc()

	aCfg := analyzer.DefaultConfig()
	aCfg.Range = rng
	aCfg.RecentLimit = cfg.Report.RecentLimit
	aCfg.Location = loc

	a := analyzer.New(aCfg, src, cls, agg, notify.NewConsole(cfg.Report.Table))
	_, err = a.RunOnce(ctx)
	return err
}

// openSource abre la fuente según input.format.
func openSource(cfg *config.Config, loc *time.Location) (ports.MessageSource, func(), error) {
	switch cfg.Input.Format {
	case "db":
		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN, loc)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		src, err := fileSource(cfg, loc)
		return src, func() {}, err
	}
}

// fileSource devuelve el lector del archivo de entrada.
func fileSource(cfg *config.Config, loc *time.Location) (ports.MessageSource, error) {
	naive, err := cfg.NaiveLocation()
	if err != nil {
		return nil, err
	}
	switch cfg.Input.Format {
	case "csv":
		return csvfile.NewReader(cfg.Input.Path, cfg.Input.TimeLayouts, loc).WithNaiveZone(naive), nil
	case "textlog":
		return textlog.NewReader(cfg.Input.Path, cfg.Input.TimeLayouts, loc).WithNaiveZone(naive), nil
	default:
		return nil, fmt.Errorf("input format %q is not a file source", cfg.Input.Format)
	}
}

// parseRange arma el rango a partir de los flags. -today gana sobre -from/-to.
func parseRange(from, to string, today bool, loc *time.Location) (domain.DateRange, error) {
	if today {
		return domain.Today(time.Now().In(loc)), nil
	}

	var rng domain.DateRange
	var err error
	if from != "" {
		if rng.From, err = time.ParseInLocation(domain.DateLayout, from, loc); err != nil {
			return rng, fmt.Errorf("-from: %w", err)
		}
	}
	if to != "" {
		if rng.To, err = time.ParseInLocation(domain.DateLayout, to, loc); err != nil {
			return rng, fmt.Errorf("-to: %w", err)
		}
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return rng, fmt.Errorf("-to %s is before -from %s", to, from)
	}
	return rng, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
