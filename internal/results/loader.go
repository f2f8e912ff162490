package results

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"argus/internal/config"
	"argus/pkg/pagination"
	"argus/pkg/storage"
)

type loader struct {
	sources    []Source
	logger     *slog.Logger
	pagination pagination.Config
	calendar   Calendar

	group singleflight.Group
	mu    sync.RWMutex
	store *Store
	won   string
}

// New creates the result loader implementing the System interface.
// The fallback chain is assembled from the configuration: primary and
// fallback snapshot files, then the blob snapshot when storage is
// available, then the results table when the database is available,
// then the in-memory demo table unless disabled. conn and blobs may be
// nil when the backing systems are not configured.
func New(
	cfg *config.ResultsConfig,
	conn *sql.DB,
	blobs storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	l := &loader{
		logger:     logger.With("system", "results"),
		pagination: pagination,
		calendar: Calendar{
			MinDate:     cfg.MinDate,
			MaxDate:     cfg.MaxDate,
			DefaultDate: cfg.DefaultDate,
		},
	}

	if cfg.SnapshotPath != "" {
		l.sources = append(l.sources, fileSource{path: cfg.SnapshotPath})
	}
	if cfg.FallbackPath != "" {
		l.sources = append(l.sources, fileSource{path: cfg.FallbackPath})
	}
	if blobs != nil && cfg.BlobKey != "" {
		l.sources = append(l.sources, blobSource{blobs: blobs, key: cfg.BlobKey})
	}
	if conn != nil {
		l.sources = append(l.sources, databaseSource{db: conn})
	}
	if cfg.MemoryFallbackEnabled() {
		l.sources = append(l.sources, memorySource{defaultDate: cfg.DefaultDate})
	}

	return l
}

func (l *loader) Handler() *Handler {
	return NewHandler(l, l.logger, l.pagination)
}

// Load returns the result table, walking the fallback chain on first
// use and serving the cached winner afterwards. Concurrent first calls
// share a single chain walk. Returns ErrUnavailable once every source
// has been exhausted.
func (l *loader) Load(ctx context.Context) (*Store, error) {
	if store := l.cached(); store != nil {
		return store, nil
	}

	v, err, _ := l.group.Do("load", func() (any, error) {
		return l.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (l *loader) AnomaliesOn(ctx context.Context, date string) ([]Anomaly, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	store, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}

	return store.AnomaliesOn(day), nil
}

func (l *loader) Calendar(ctx context.Context) (*Calendar, error) {
	store, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}

	cal := l.calendar
	cal.Dates = store.Dates()
	return &cal, nil
}

func (l *loader) Status(ctx context.Context) (*Status, error) {
	store, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	won := l.won
	l.mu.RUnlock()

	return &Status{
		Source:  won,
		Records: store.Len(),
		Sensors: len(store.Columns),
	}, nil
}

func (l *loader) cached() *Store {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store
}

func (l *loader) load(ctx context.Context) (*Store, error) {
	if store := l.cached(); store != nil {
		return store, nil
	}

	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		store, err := src.Load(ctx)
		if err != nil {
			l.logger.Warn("results source unavailable", "source", src.Name(), "error", err)
			continue
		}
		if store.Len() == 0 {
			l.logger.Warn("results source empty", "source", src.Name())
			continue
		}

		l.mu.Lock()
		l.store = store
		l.won = src.Name()
		l.mu.Unlock()

		l.logger.Info(
			"results loaded",
			"source", src.Name(),
			"records", store.Len(),
			"sensors", len(store.Columns),
		)
		return store, nil
	}

	return nil, ErrUnavailable
}
