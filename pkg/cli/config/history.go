package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/drover/pkg/infra/firestore"
	"github.com/m-mizutani/drover/pkg/infra/sqlite"
	"github.com/m-mizutani/drover/pkg/infra/storage"
)

// Run history sources readable by the history command
const (
	HistorySourceSQLite    = "sqlite"
	HistorySourceFirestore = "firestore"
	HistorySourceStorage   = "gcs"
)

// RunStore reads stored run records
type RunStore interface {
	Get(ctx context.Context, runID string) (*model.RunRecord, error)
	Close() error
}

// History holds run history destinations
type History struct {
	Source string

	FirestoreProjectID  string
	FirestoreDatabaseID string
	FirestoreCollection string

	StorageBucket string
	StoragePrefix string

	DatabasePath string
}

// Flags returns CLI flags for run history configuration
func (c *History) Flags() []cli.Flag {
	return c.destinationFlags()
}

// SourceFlags returns CLI flags selecting where run history is read from
func (c *History) SourceFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "source",
			Usage:       "History source to read: sqlite, firestore or gcs",
			Value:       HistorySourceSQLite,
			Destination: &c.Source,
			Sources:     cli.EnvVars("DROVER_HISTORY_SOURCE"),
		},
	}, c.destinationFlags()...)
}

func (c *History) destinationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Google Cloud project storing run history in Firestore",
			Destination: &c.FirestoreProjectID,
			Sources:     cli.EnvVars("DROVER_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Destination: &c.FirestoreDatabaseID,
			Sources:     cli.EnvVars("DROVER_FIRESTORE_DATABASE_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection of run records",
			Value:       firestore.DefaultCollection,
			Destination: &c.FirestoreCollection,
			Sources:     cli.EnvVars("DROVER_FIRESTORE_COLLECTION"),
		},
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket archiving run reports",
			Destination: &c.StorageBucket,
			Sources:     cli.EnvVars("DROVER_STORAGE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object prefix of archived run reports",
			Value:       "runs",
			Destination: &c.StoragePrefix,
			Sources:     cli.EnvVars("DROVER_STORAGE_PREFIX"),
		},
		c.databaseFlag(),
	}
}

func (c *History) databaseFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "history-db",
		Usage:       "Path to a local SQLite database storing run history",
		Destination: &c.DatabasePath,
		Sources:     cli.EnvVars("DROVER_HISTORY_DB"),
	}
}

// Database opens the local history database
func (c *History) Database(ctx context.Context) (*sqlite.Recorder, error) {
	if c.DatabasePath == "" {
		return nil, goerr.New("--history-db is required", goerr.T(types.ErrTagConfig))
	}
	return sqlite.New(ctx, c.DatabasePath)
}

// Store opens the history source selected by --source
func (c *History) Store(ctx context.Context) (RunStore, error) {
	switch c.Source {
	case "", HistorySourceSQLite:
		db, err := c.Database(ctx)
		if err != nil {
			return nil, err
		}
		return db, nil

	case HistorySourceFirestore:
		if c.FirestoreProjectID == "" {
			return nil, goerr.New("--firestore-project-id is required for firestore source", goerr.T(types.ErrTagConfig))
		}
		recorder, err := firestore.New(ctx, c.FirestoreProjectID, c.FirestoreDatabaseID, c.FirestoreCollection)
		if err != nil {
			return nil, err
		}
		return recorder, nil

	case HistorySourceStorage:
		if c.StorageBucket == "" {
			return nil, goerr.New("--storage-bucket is required for gcs source", goerr.T(types.ErrTagConfig))
		}
		archiver, err := storage.New(ctx, c.StorageBucket, c.StoragePrefix)
		if err != nil {
			return nil, err
		}
		return archiver, nil

	default:
		return nil, goerr.New("unknown history source", goerr.V("source", c.Source), goerr.T(types.ErrTagConfig))
	}
}

// Reporters creates the configured history reporters. The returned
// function closes their clients.
func (c *History) Reporters(ctx context.Context) ([]interfaces.Reporter, func(), error) {
	var (
		reporters []interfaces.Reporter
		closers   []func() error
	)
	closeAll := func() {
		for _, fn := range closers {
			_ = fn()
		}
	}

	if c.FirestoreProjectID != "" {
		recorder, err := firestore.New(ctx, c.FirestoreProjectID, c.FirestoreDatabaseID, c.FirestoreCollection)
		if err != nil {
			return nil, nil, err
		}
		reporters = append(reporters, recorder)
		closers = append(closers, recorder.Close)
	}

	if c.StorageBucket != "" {
		archiver, err := storage.New(ctx, c.StorageBucket, c.StoragePrefix)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		reporters = append(reporters, archiver)
		closers = append(closers, archiver.Close)
	}

	if c.DatabasePath != "" {
		recorder, err := c.Database(ctx)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		reporters = append(reporters, recorder)
		closers = append(closers, recorder.Close)
	}

	return reporters, closeAll, nil
}
