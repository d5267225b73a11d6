// Package store archives the documents of successful scrape runs in
// sqlite. nothing in a scrape ever reads from it.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"covid19-scrapers/lib/dataset"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

var tracer = otel.Tracer("covid19.lib.store")

var ErrNoRuns = errors.New("no runs archived")

const (
	KindCases  = "cases"
	KindDeaths = "deaths"
)

// OpenDB opens (creating if needed) the sqlite database at path and
// applies the schema.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// sqlite only allows one writer, every connection to :memory: is
	// also its own database
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open db: %w", err)
		}
	}
	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type Run struct {
	Id        string
	County    string
	SourceUrl string
	ScrapedAt time.Time
	Document  dataset.Document
}

func newRunId() (string, error) {
	id, err := random.String(16)
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id, nil
}

// SaveRun archives a complete document, returning the id of the new run.
func (s Store) SaveRun(ctx context.Context, doc dataset.Document) (string, error) {
	ctx, span := tracer.Start(ctx, "SaveRun")
	defer span.End()

	id, err := s.saveRun(ctx, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to archive run")
		return "", err
	}
	span.SetAttributes(attribute.String("run_id", id))
	return id, nil
}

func (s Store) saveRun(ctx context.Context, doc dataset.Document) (string, error) {
	scrapedAt, err := time.Parse(time.RFC3339, doc.UpdateTime)
	if err != nil {
		return "", fmt.Errorf("document update time: %w", err)
	}
	serialized, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	id, err := newRunId()
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		"insert into runs(id, county, source_url, scraped_at, document) values (?, ?, ?, ?, ?)",
		id, doc.Name, doc.SourceUrl, scrapedAt.Unix(), string(serialized),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	counts := map[string]map[string]int{
		KindCases:  doc.CaseTotals.AgeGroup,
		KindDeaths: doc.DeathTotals.AgeGroup,
	}
	for _, kind := range []string{KindCases, KindDeaths} {
		for _, key := range slices.Sorted(maps.Keys(counts[kind])) {
			_, err = tx.ExecContext(
				ctx,
				"insert into age_counts(run_id, kind, key, count) values (?, ?, ?, ?)",
				id, kind, key, counts[kind][key],
			)
			if err != nil {
				return "", fmt.Errorf("insert %s age count %s: %w", kind, key, err)
			}
		}
	}

	for _, p := range doc.Series {
		_, err = tx.ExecContext(
			ctx,
			"insert into series(run_id, date, cases, cumul_cases) values (?, ?, ?, ?)",
			id, p.Date, p.Cases, p.CumulCases,
		)
		if err != nil {
			return "", fmt.Errorf("insert series point %s: %w", p.Date, err)
		}
	}

	return id, tx.Commit()
}

// LatestRun returns the most recently scraped run for a county, or
// ErrNoRuns.
func (s Store) LatestRun(ctx context.Context, county string) (Run, error) {
	ctx, span := tracer.Start(ctx, "LatestRun")
	defer span.End()

	row := s.db.QueryRowContext(
		ctx,
		`select id, county, source_url, scraped_at, document from runs
		where county = ?
		order by scraped_at desc, rowid desc
		limit 1`,
		county,
	)

	var run Run
	var scrapedAt int64
	var document string
	err := row.Scan(&run.Id, &run.County, &run.SourceUrl, &scrapedAt, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read run")
		return Run{}, err
	}
	run.ScrapedAt = time.Unix(scrapedAt, 0)

	err = json.Unmarshal([]byte(document), &run.Document)
	if err != nil {
		return Run{}, fmt.Errorf("run %s document: %w", run.Id, err)
	}
	return run, nil
}

// AgeCounts returns one kind of age group counts archived for a run.
func (s Store) AgeCounts(ctx context.Context, runId, kind string) (map[string]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select key, count from age_counts where run_id = ? and kind = ?",
		runId, kind,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		err = rows.Scan(&key, &count)
		if err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// Series returns the timeseries archived for a run in date order.
func (s Store) Series(ctx context.Context, runId string) ([]dataset.SeriesPoint, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select date, cases, cumul_cases from series where run_id = ? order by date",
		runId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := []dataset.SeriesPoint{}
	for rows.Next() {
		var p dataset.SeriesPoint
		err = rows.Scan(&p.Date, &p.Cases, &p.CumulCases)
		if err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}
