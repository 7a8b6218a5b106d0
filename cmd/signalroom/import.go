package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/alejandrodnm/signalroom/config"
	"github.com/alejandrodnm/signalroom/internal/adapters/storage"
	"github.com/alejandrodnm/signalroom/internal/analyzer"
	"github.com/alejandrodnm/signalroom/internal/domain"
)

// runImport copia el archivo de entrada a la base de datos.
func runImport(ctx context.Context, cfg *config.Config, loc *time.Location, rng domain.DateRange) error {
	src, err := fileSource(cfg, loc)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	store, err := openStore(ctx, cfg, loc)
	if err != nil {
		return err
	}
	defer store.Close()

	label := cfg.Input.Format + ":" + filepath.Base(cfg.Input.Path)
	res, err := analyzer.Import(ctx, src, store, label, rng, nil)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d of %d messages from %s (%d duplicates, %d skipped) → %s [%s]\n",
		res.Inserted, res.Read, cfg.Input.Path, res.Read-res.Inserted, res.Skipped, cfg.Storage.DSN, res.ImportID)
	return nil
}

// openStore abre la base de datos y aplica la retención configurada.
func openStore(ctx context.Context, cfg *config.Config, loc *time.Location) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN, loc)
	if err != nil {
		return nil, err
	}

	if keep := cfg.Retention(); keep > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-keep))
		if err != nil {
			store.Close()
			return nil, err
		}
		if n > 0 {
			slog.Info("old messages pruned", "deleted", n, "retention_days", cfg.Storage.RetentionDays)
		}
	}
	return store, nil
}
