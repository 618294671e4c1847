// Command order-export dumps paid orders as gzipped JSON lines, one record
// per line, for offline reporting and bookkeeping.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/oatandmatcha/storefront/internal/domain/order"
	"github.com/oatandmatcha/storefront/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		outPath     string
		status      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&outPath, "out", "orders.jsonl.gz", "output file path")
	flag.StringVar(&status, "status", "paid", "order status to export (pending, paid, failed)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, outPath, order.Status(status)); err != nil {
		slog.Error("order export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("order export completed successfully")
}

func run(ctx context.Context, databaseURL, outPath string, status order.Status) error {
	if !status.Valid() {
		return errors.Errorf("unknown status %q", status)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewOrderRepository(pool)
	recs, err := repo.ListByStatus(ctx, status)
	if err != nil {
		return errors.Wrap(err, "list orders")
	}

	slog.Info("exporting orders",
		slog.String("status", string(status)),
		slog.Int("count", len(recs)),
	)

	if err := writeExport(outPath, recs); err != nil {
		return errors.Wrap(err, "write export")
	}

	slog.Info("wrote export file", slog.String("path", outPath))
	return nil
}

func writeExport(path string, recs []order.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer f.Close()

	gz := pgzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return errors.Wrapf(err, "encode order %q", rec.Reference)
		}
	}

	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "flush gzip stream")
	}
	return f.Close()
}
