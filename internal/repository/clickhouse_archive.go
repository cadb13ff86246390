package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/util"
)

// MarketTable is the archive table name.
const MarketTable = "market_snapshots"

// MarketSchema returns the DDL for the archive in database.
func MarketSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    at          DateTime64(3, 'UTC'),
    symbol      LowCardinality(String),
    price       Float64,
    change_pct  Float64,
    volume      Int64,
    panic_score Float64,
    panic_level LowCardinality(String),
    verdict     String,
    blocked     UInt8,
    strategy    String,
    confidence  Float64,
    payload     String
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, at)`, database, MarketTable),
	}
}

// sqlDB is the subset of *sql.DB the archive uses.
type sqlDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ClickHouseArchive stores one row per applied snapshot that carries
// market stats, and reads them back for the history view.
type ClickHouseArchive struct {
	db    sqlDB
	table string
	now   func() time.Time
	l     *applogger.Logger
}

// NewClickHouseArchive creates an archive writing to database.MarketTable.
func NewClickHouseArchive(db sqlDB, database string, l *applogger.Logger) *ClickHouseArchive {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseArchive{
		db:    db,
		table: database + "." + MarketTable,
		now:   time.Now,
		l:     l,
	}
}

var (
	_ repository.SnapshotArchive = (*ClickHouseArchive)(nil)
	_ repository.MarketHistory   = (*ClickHouseArchive)(nil)
)

// Archive inserts snap. Snapshots without market stats are skipped.
func (a *ClickHouseArchive) Archive(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil || snap.MarketStats == nil {
		return nil
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	ms := snap.MarketStats
	verdict, blocked := models.DefaultVerdict, false
	if snap.Verdict != nil {
		verdict, blocked = snap.Verdict.Text, snap.Verdict.Blocked
	}
	var strategy string
	var confidence float64
	if snap.BestBet != nil {
		strategy, confidence = snap.BestBet.StrategyName, snap.BestBet.Prediction.Confidence
	}

	q := fmt.Sprintf(`INSERT INTO %s
        (at, symbol, price, change_pct, volume, panic_score, panic_level, verdict, blocked, strategy, confidence, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, a.table)
	_, err = a.db.ExecContext(ctx, q,
		util.ParseTimeDefault(snap.Timestamp, a.now()).UTC(),
		snap.Symbol,
		ms.Price,
		ms.ChangePct,
		ms.Volume,
		ms.PanicScore,
		models.ClassifyPanic(ms.PanicScore).Label(),
		verdict,
		boolToUInt8(blocked),
		strategy,
		confidence,
		string(payload),
	)
	if err != nil {
		a.l.Error("clickhouse archive insert error",
			applogger.String("table", a.table),
			applogger.String("symbol", snap.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// RecentMarket returns up to limit archived rows, newest first.
func (a *ClickHouseArchive) RecentMarket(ctx context.Context, limit int) ([]models.ArchivedMarket, error) {
	if limit <= 0 {
		return []models.ArchivedMarket{}, nil
	}
	q := fmt.Sprintf(`SELECT at, symbol, price, change_pct, volume, panic_score, panic_level, verdict, blocked
        FROM %s FINAL
        ORDER BY at DESC
        LIMIT ?`, a.table)
	rows, err := a.db.QueryContext(ctx, q, limit)
	if err != nil {
		a.l.Error("clickhouse recent_market query error", applogger.String("table", a.table), applogger.Error(err))
		return nil, fmt.Errorf("query market history: %w", err)
	}
	defer rows.Close()

	out := make([]models.ArchivedMarket, 0, limit)
	for rows.Next() {
		var m models.ArchivedMarket
		var blocked uint8
		if err := rows.Scan(&m.At, &m.Symbol, &m.Price, &m.ChangePct, &m.Volume, &m.PanicScore, &m.PanicLevel, &m.Verdict, &blocked); err != nil {
			return nil, fmt.Errorf("scan market history: %w", err)
		}
		m.Blocked = blocked == 1
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close is a no-op; the pool belongs to the clickhouse client.
func (a *ClickHouseArchive) Close() error { return nil }

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
