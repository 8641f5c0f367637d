// Package store archives resolved exchange rates in SQLite so later runs can
// answer offline. The archive also serves as a rate provider named "archive".
package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/cleared-dev/savings/internal/log"
	"github.com/cleared-dev/savings/internal/rates"
)

// Store is the SQLite rate archive.
type Store struct {
	db  *sql.DB
	log *log.Logger
}

// Open opens or creates the archive at dbPath and migrates it.
func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	return &Store{db: db, log: logger}, nil
}

// Close closes the archive.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores rate for the pair on day, replacing any earlier value.
func (s *Store) Put(ctx context.Context, from, to string, day time.Time, rate decimal.Decimal, source string) error {
	if !rate.IsPositive() {
		return fmt.Errorf("archive %s/%s: rate must be positive, got %s", from, to, rate)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rates (from_currency, to_currency, day, rate, source, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (from_currency, to_currency, day)
		DO UPDATE SET rate = excluded.rate, source = excluded.source, recorded_at = excluded.recorded_at`,
		strings.ToUpper(from), strings.ToUpper(to), day.UTC().Format(time.DateOnly),
		rate.String(), source, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("archive %s/%s: %w", from, to, err)
	}
	return nil
}

func (s *Store) Name() string { return "archive" }

// Rate returns the archived rate for the exact day, or the most recent one
// when asOf is zero. A pair archived only the other way round is inverted.
func (s *Store) Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	rate, err := s.lookup(ctx, from, to, asOf)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: archive: %v", rates.ErrProviderUnavailable, err)
	}
	inv, err := s.lookup(ctx, to, from, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: archive has no %s/%s for %s", rates.ErrProviderUnavailable, from, to, dayLabel(asOf))
	}
	return decimal.NewFromInt(1).Div(inv), nil
}

func (s *Store) lookup(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	var raw string
	var err error
	if asOf.IsZero() {
		err = s.db.QueryRowContext(ctx,
			`SELECT rate FROM rates WHERE from_currency = ? AND to_currency = ? ORDER BY day DESC LIMIT 1`,
			from, to).Scan(&raw)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT rate FROM rates WHERE from_currency = ? AND to_currency = ? AND day = ?`,
			from, to, asOf.UTC().Format(time.DateOnly)).Scan(&raw)
	}
	if err != nil {
		return decimal.Zero, err
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("archived rate %q: %w", raw, err)
	}
	return rate, nil
}

func dayLabel(asOf time.Time) string {
	if asOf.IsZero() {
		return "latest"
	}
	return asOf.UTC().Format(time.DateOnly)
}

// Record archives the provider answers of a run under the date they were
// answered for. Manual entries and undated answers are skipped, as are
// answers that came from the archive itself.
func (s *Store) Record(ctx context.Context, res []rates.Resolution) (int, error) {
	n := 0
	for _, r := range res {
		if r.Source == rates.SourceManual || r.Source == s.Name() || r.Probe.IsZero() {
			continue
		}
		if err := s.Put(ctx, r.Key.From, r.Key.To, r.Probe, r.Rate, r.Source); err != nil {
			return n, err
		}
		n++
	}
	s.log.Debug("archived rates", "count", n)
	return n, nil
}

// Import loads "date,from,to,rate" rows into the archive in one
// transaction. A header row is skipped when present.
func (s *Store) Import(ctx context.Context, r io.Reader, source string) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rates (from_currency, to_currency, day, rate, source, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (from_currency, to_currency, day)
		DO UPDATE SET rate = excluded.rate, source = excluded.source, recorded_at = excluded.recorded_at`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	n, first := 0, true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err // csv.ParseError carries the line
		}
		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
				continue
			}
		}
		if len(rec) < 4 {
			return 0, fmt.Errorf("line %d: want date,from,to,rate, got %d fields", line, len(rec))
		}
		day, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[0]))
		if err != nil {
			return 0, fmt.Errorf("line %d: invalid date %q", line, rec[0])
		}
		from := strings.ToUpper(strings.TrimSpace(rec[1]))
		to := strings.ToUpper(strings.TrimSpace(rec[2]))
		if from == "" || to == "" {
			return 0, fmt.Errorf("line %d: missing currency", line)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
		if err != nil || !rate.IsPositive() {
			return 0, fmt.Errorf("line %d: invalid rate %q", line, rec[3])
		}
		if _, err := stmt.ExecContext(ctx, from, to, day.Format(time.DateOnly), rate.String(), source, now); err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Count returns the number of archived rates.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rates`).Scan(&n)
	return n, err
}
