package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// Archiver writes every run report as a JSON object to a Cloud Storage bucket
type Archiver struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.Reporter = (*Archiver)(nil)

// New creates an archiver writing to gs://bucket/prefix/<run_id>.json
func New(ctx context.Context, bucket, prefix string) (*Archiver, error) {
	client, err := storage.NewClient(ctx, option.WithUserAgent(types.ServiceName+"/"+types.Version))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client")
	}

	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// ObjectName returns the object path of a run report
func (a *Archiver) ObjectName(runID string) string {
	return path.Join(a.prefix, runID+".json")
}

// Report writes report.Record() as JSON
func (a *Archiver) Report(ctx context.Context, report *model.RunReport) error {
	name := a.ObjectName(report.RunID)

	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if err := json.NewEncoder(w).Encode(report.Record()); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write run report", goerr.V("bucket", a.bucket), goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to upload run report", goerr.V("bucket", a.bucket), goerr.V("object", name))
	}
	return nil
}

// Get reads a stored run report. It returns nil without error when the
// object does not exist.
func (a *Archiver) Get(ctx context.Context, runID string) (*model.RunRecord, error) {
	name := a.ObjectName(runID)

	r, err := a.client.Bucket(a.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open run report", goerr.V("bucket", a.bucket), goerr.V("object", name))
	}
	defer func() {
		_ = r.Close()
	}()

	var rec model.RunRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, goerr.Wrap(err, "failed to decode run report", goerr.V("object", name))
	}
	return &rec, nil
}

// Close closes the underlying client
func (a *Archiver) Close() error {
	return a.client.Close()
}
