package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// DefaultCollection is the collection holding run records
const DefaultCollection = "drover_runs"

// Recorder stores run history in Firestore, one document per run
type Recorder struct {
	client     *firestore.Client
	collection string
}

var _ interfaces.Reporter = (*Recorder)(nil)

// New creates a Firestore recorder. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID, collection string) (*Recorder, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID,
		option.WithUserAgent(types.ServiceName+"/"+types.Version),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	return &Recorder{
		client:     client,
		collection: collection,
	}, nil
}

// Report stores report under its run ID. Re-delivered runs overwrite the previous record.
func (r *Recorder) Report(ctx context.Context, report *model.RunReport) error {
	_, err := r.client.Collection(r.collection).Doc(report.RunID).Set(ctx, report.Record())
	if err != nil {
		opts := []goerr.Option{
			goerr.V("collection", r.collection),
			goerr.V("run_id", report.RunID),
		}
		if isRetryable(err) {
			opts = append(opts, goerr.T(types.ErrTagTransient))
		}
		return goerr.Wrap(err, "failed to save run record", opts...)
	}
	return nil
}

// Get loads a stored run record
func (r *Recorder) Get(ctx context.Context, runID string) (*model.RunRecord, error) {
	snap, err := r.client.Collection(r.collection).Doc(runID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get run record", goerr.V("run_id", runID))
	}

	var rec model.RunRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, goerr.Wrap(err, "failed to decode run record", goerr.V("run_id", runID))
	}
	return &rec, nil
}

// Close closes the underlying client
func (r *Recorder) Close() error {
	return r.client.Close()
}

func isRetryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
