package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinDash/internal/domain/models"
	drepo "FinDash/internal/domain/repository"
	applogger "FinDash/pkg/logger"
)

// Archive backends.
const (
	ArchiveNone       = "none"
	ArchiveKafka      = "kafka"
	ArchiveClickHouse = "clickhouse"
)

// Archiver writes applied snapshots to the configured backend. The same
// export is usually polled many times, so consecutive snapshots with the
// same timestamp are written once. Refreshes finish out of order, so a
// snapshot from a refresh older than the last archived one is skipped.
type Archiver struct {
	sink    drepo.SnapshotArchive
	backend string
	metrics drepo.Metrics
	logger  *applogger.Logger

	mu      sync.Mutex
	last    string
	lastSeq uint64
}

// NewArchiver creates an archiver. A nil sink disables archiving.
func NewArchiver(sink drepo.SnapshotArchive, backend string, metrics drepo.Metrics, logger *applogger.Logger) *Archiver {
	if sink == nil {
		backend = ArchiveNone
	}
	return &Archiver{
		sink:    sink,
		backend: backend,
		metrics: metrics,
		logger:  logger,
	}
}

// Backend reports the active backend name.
func (a *Archiver) Backend() string { return a.backend }

// Archive stores snap unless it repeats the previously archived export or
// was applied by an older refresh than the last one archived.
func (a *Archiver) Archive(ctx context.Context, seq uint64, snap *models.Snapshot) error {
	if a.sink == nil || snap == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if seq < a.lastSeq {
		a.logger.Debug("out of order snapshot not archived",
			applogger.Int64("seq", int64(seq)),
			applogger.Int64("last_seq", int64(a.lastSeq)),
		)
		return nil
	}
	if snap.Timestamp != "" && snap.Timestamp == a.last {
		a.lastSeq = seq
		return nil
	}

	start := time.Now()
	if err := a.sink.Archive(ctx, snap); err != nil {
		a.metrics.RecordError("archive_" + a.backend)
		return fmt.Errorf("archive snapshot: %w", err)
	}
	a.last, a.lastSeq = snap.Timestamp, seq
	a.logger.Debug("snapshot archived",
		applogger.String("backend", a.backend),
		applogger.String("timestamp", snap.Timestamp),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// Close releases the backend.
func (a *Archiver) Close() error {
	if a.sink == nil {
		return nil
	}
	return a.sink.Close()
}
