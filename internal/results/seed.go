package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"argus/pkg/repository"
)

const (
	truncateResults = `TRUNCATE results RESTART IDENTITY`

	insertResult = `
		INSERT INTO results (recorded_at, activity, confidence, features)
		VALUES ($1, $2, $3, $4)`

	countResults = `SELECT COUNT(*) FROM results`
)

// SeedResults inserts the store's records into the results table in
// row order, optionally clearing the table first. The whole load runs
// in one transaction. Returns the number of rows inserted and the
// total table count afterwards.
func SeedResults(ctx context.Context, db *sql.DB, store *Store, truncate bool) (int, int, error) {
	inserted, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (int, error) {
		if truncate {
			if _, err := tx.ExecContext(ctx, truncateResults); err != nil {
				return 0, fmt.Errorf("truncating results: %w", err)
			}
		}

		for i, rec := range store.Records {
			features := make(map[string]float64, len(store.Columns))
			for c, name := range store.Columns {
				if c < len(rec.Features) {
					features[name] = rec.Features[c]
				}
			}
			data, err := json.Marshal(features)
			if err != nil {
				return 0, fmt.Errorf("encoding features for row %d: %w", i, err)
			}

			// Unparseable timestamps persist as NULL, mirroring how the
			// database source restores them as zero values.
			var recordedAt any
			if !rec.Timestamp.IsZero() {
				recordedAt = rec.Timestamp
			}

			if err := repository.ExecExpectOne(ctx, tx, insertResult, recordedAt, rec.Activity, rec.Confidence, data); err != nil {
				return 0, fmt.Errorf("inserting row %d: %w", i, err)
			}
		}

		return store.Len(), nil
	})
	if err != nil {
		return 0, 0, err
	}

	total, err := repository.QueryOne(ctx, db, countResults, nil, scanCount)
	if err != nil {
		return inserted, 0, fmt.Errorf("counting results: %w", err)
	}

	return inserted, total, nil
}

func scanCount(s repository.Scanner) (int, error) {
	var n int
	err := s.Scan(&n)
	return n, err
}
