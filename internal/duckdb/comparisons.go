package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/genome-mapping/internal/compare"
)

// Run describes one stored batch of comparisons.
type Run struct {
	ID          string
	Source      string
	CreatedAt   time.Time
	Comparisons int64
}

// LabelCount is the number of comparisons of a run sharing a pretty label.
type LabelCount struct {
	Label string
	Count int64
}

// Row is one stored comparison. Fields of an absent side are NULL.
type Row struct {
	Seq          int64
	HitURS       sql.NullString
	HitChrom     sql.NullString
	HitStart     sql.NullInt64
	HitStop      sql.NullInt64
	FeatureURS   sql.NullString
	FeatureChrom sql.NullString
	FeatureStart sql.NullInt64
	FeatureStop  sql.NullInt64
	ShiftStart   sql.NullInt64
	ShiftStop    sql.NullInt64
	Match        string
	Location     string
	Pretty       string
}

// WriteComparisons stores comparisons as a new run and returns its id.
// Rows are batch-inserted with the Appender API. The run is only recorded
// once every row is flushed; on failure the rows already appended are removed.
func (s *Store) WriteComparisons(source string, cs []*compare.Comparison) (string, error) {
	runID := uuid.NewString()
	if err := s.appendComparisons(runID, cs); err != nil {
		s.discardRun(runID)
		return "", err
	}
	if _, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?)`,
		runID, source, time.Now().UTC(), int64(len(cs))); err != nil {
		s.discardRun(runID)
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

func (s *Store) appendComparisons(runID string, cs []*compare.Comparison) error {
	if len(cs) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "comparisons")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, c := range cs {
		var hitURS, hitChrom, hitType any
		var hitStart, hitStop, identity any
		if h := c.Hit; h != nil {
			hitURS, hitChrom, hitType = h.URS(), h.Chromosome, c.Type.HitType
			hitStart, hitStop, identity = h.Start, h.Stop, h.Identity()
		}

		var featURS, featChrom, featType any
		var featStart, featStop any
		if f := c.Feature; f != nil {
			featURS, featChrom, featType = f.URS(), f.Chromosome, c.Type.FeatureType
			featStart, featStop = f.Start, f.Stop
		}

		var shiftStart, shiftStop any
		if !c.Shift.IsCrossChromosome() {
			shiftStart, shiftStop = c.Shift.Start, c.Shift.Stop
		}

		if err := appender.AppendRow(
			runID, int64(i),
			hitURS, hitChrom, hitStart, hitStop, hitType, identity,
			featURS, featChrom, featStart, featStop, featType,
			shiftStart, shiftStop,
			string(c.Type.Match), string(c.Type.Location), c.Type.Pretty,
		); err != nil {
			return fmt.Errorf("append comparison: %w", err)
		}
	}

	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush comparisons: %w", err)
	}
	return nil
}

// discardRun removes whatever a failed write left behind.
func (s *Store) discardRun(runID string) {
	_ = s.DeleteRun(runID)
}

// Runs lists stored runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id, source, created_at, comparisons FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.CreatedAt, &r.Comparisons); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Summary counts the comparisons of a run by pretty label.
func (s *Store) Summary(runID string) ([]LabelCount, error) {
	rows, err := s.db.Query(`SELECT pretty, count(*) FROM comparisons
		WHERE run_id=? GROUP BY pretty ORDER BY pretty`, runID)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var counts []LabelCount
	for rows.Next() {
		var c LabelCount
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return counts, nil
}

// Comparisons returns the stored rows of a run in their original order.
func (s *Store) Comparisons(runID string) ([]Row, error) {
	rows, err := s.db.Query(`SELECT
		seq, hit_urs, hit_chrom, hit_start, hit_stop,
		feature_urs, feature_chrom, feature_start, feature_stop,
		shift_start, shift_stop, match_type, location_type, pretty
		FROM comparisons WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query comparisons: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(
			&r.Seq, &r.HitURS, &r.HitChrom, &r.HitStart, &r.HitStop,
			&r.FeatureURS, &r.FeatureChrom, &r.FeatureStart, &r.FeatureStop,
			&r.ShiftStart, &r.ShiftStop, &r.Match, &r.Location, &r.Pretty,
		); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comparisons: %w", err)
	}
	return result, nil
}

// DeleteRun removes a run and its comparisons.
func (s *Store) DeleteRun(runID string) error {
	if _, err := s.db.Exec("DELETE FROM comparisons WHERE run_id=?", runID); err != nil {
		return fmt.Errorf("delete comparisons: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM runs WHERE run_id=?", runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
