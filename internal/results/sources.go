package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"slices"

	"argus/pkg/repository"
	"argus/pkg/storage"
)

// Source is one rung of the result-table fallback chain. Load either
// produces a complete store or reports why the source cannot serve;
// the loader decides whether another source gets a turn.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Store, error)
}

type fileSource struct {
	path string
}

func (s fileSource) Name() string {
	return fmt.Sprintf("file:%s", s.path)
}

func (s fileSource) Load(_ context.Context) (*Store, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening snapshot: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	store, err := DecodeSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrSourceUnavailable, s.path, err)
	}
	return store, nil
}

type blobSource struct {
	blobs storage.System
	key   string
}

func (s blobSource) Name() string {
	return fmt.Sprintf("blob:%s", s.key)
}

func (s blobSource) Load(ctx context.Context) (*Store, error) {
	rc, err := s.blobs.Download(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: downloading snapshot: %w", ErrSourceUnavailable, err)
	}
	defer rc.Close()

	store, err := DecodeSnapshot(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrSourceUnavailable, s.key, err)
	}
	return store, nil
}

type databaseSource struct {
	db *sql.DB
}

const selectResults = `
	SELECT recorded_at, activity, confidence, features
	FROM results
	ORDER BY position`

func (s databaseSource) Name() string {
	return "database"
}

// Load reads the results table in position order and rebuilds the
// feature matrix. Feature columns are the sorted union of the jsonb
// keys; attribution artifacts map columns by name, so the original
// snapshot column order does not need to survive the round trip.
func (s databaseSource) Load(ctx context.Context) (*Store, error) {
	rows, err := repository.QueryMany(ctx, s.db, selectResults, nil, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("%w: querying results: %w", ErrSourceUnavailable, err)
	}

	columns := make([]string, 0)
	seen := make(map[string]int)
	for _, row := range rows {
		for name := range row.features {
			if _, ok := seen[name]; !ok {
				seen[name] = 0
				columns = append(columns, name)
			}
		}
	}
	slices.Sort(columns)
	for i, name := range columns {
		seen[name] = i
	}

	store := &Store{
		Columns: columns,
		Records: make([]Record, 0, len(rows)),
	}

	for _, row := range rows {
		rec := Record{
			Activity:   defaultActivity,
			Confidence: clampConfidence(row.confidence),
			Features:   make([]float64, len(columns)),
		}
		if row.recordedAt.Valid {
			rec.Timestamp = row.recordedAt.Time.UTC()
		}
		if row.activity != "" {
			rec.Activity = row.activity
		}
		for name, v := range row.features {
			rec.Features[seen[name]] = v
		}
		store.Records = append(store.Records, rec)
	}

	return store, nil
}
