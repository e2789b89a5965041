// Package archive periodically copies aged request logs to object
// storage as CSV. It only ever uploads; pruning the log table is a
// separate housekeeping concern this service does not own.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/emRival/GASHub/internal/export"
	"github.com/emRival/GASHub/internal/models"
	"github.com/sirupsen/logrus"
)

const batchSize = 5000

type Store interface {
	ListLogsBetween(ctx context.Context, from, to time.Time, limit int) ([]models.RequestLog, error)
}

type Archiver struct {
	store    Store
	uploader Uploader
	interval time.Duration
	minAge   time.Duration
	log      *logrus.Entry

	// since marks the end of the last archived window. After a restart
	// it resets, so a window may be exported twice; object keys encode
	// the window, which keeps replays harmless.
	since time.Time
}

func New(logger *logrus.Logger, store Store, uploader Uploader, interval, minAge time.Duration) *Archiver {
	return &Archiver{
		store:    store,
		uploader: uploader,
		interval: interval,
		minAge:   minAge,
		log:      logger.WithField("component", "archiver"),
	}
}

func (a *Archiver) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.log.Info("Starting log archiver")

	for {
		select {
		case <-ticker.C:
			if err := a.runOnce(ctx); err != nil {
				a.log.WithError(err).Error("Archive run failed")
			}
		case <-ctx.Done():
			a.log.Info("Stopping log archiver")
			return
		}
	}
}

func (a *Archiver) runOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-a.minAge)
	if !cutoff.After(a.since) {
		return nil
	}

	logs, err := a.store.ListLogsBetween(ctx, a.since, cutoff, batchSize)
	if err != nil {
		return fmt.Errorf("listing logs: %w", err)
	}
	if len(logs) == 0 {
		a.since = cutoff
		return nil
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, logs); err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}

	key := fmt.Sprintf("logs/%s_%s.csv",
		a.since.UTC().Format("20060102T150405Z"),
		cutoff.UTC().Format("20060102T150405Z"))

	if err := a.uploader.Upload(ctx, key, &buf, "text/csv"); err != nil {
		return err
	}

	a.log.WithFields(logrus.Fields{
		"key":   key,
		"count": len(logs),
	}).Info("Archived request logs")

	// A full batch means the window has more rows; keep the watermark
	// so the next run picks up where this one stopped.
	if len(logs) == batchSize {
		a.since = logs[len(logs)-1].CreatedAt
		return nil
	}
	a.since = cutoff
	return nil
}
