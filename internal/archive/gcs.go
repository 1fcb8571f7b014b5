package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/expense-bot/internal/domain"
)

// ObjectPrefix is the folder extraction objects are written under.
const ObjectPrefix = "extractions"

// GCSArchive writes each extraction as a JSON object to a bucket.
// It assumes Application Default Credentials are configured.
type GCSArchive struct {
	client *storage.Client
	bucket string
}

// NewGCSArchive creates the storage client once for the process.
func NewGCSArchive(ctx context.Context, bucket string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSArchive: create storage client: %w", err)
	}
	return &GCSArchive{
		client: client,
		bucket: bucket,
	}, nil
}

// Save implements Saver.
func (a *GCSArchive) Save(ctx context.Context, entry domain.ExtractionEntry) error {
	name := ObjectName(entry)

	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if err := json.NewEncoder(w).Encode(entry); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCSArchive.Save: encode %s: %w", name, err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCSArchive.Save: finalize gs://%s/%s: %w", a.bucket, name, err)
	}

	return nil
}

// Close closes the storage client.
func (a *GCSArchive) Close() error {
	return a.client.Close()
}

// ObjectName returns extractions/YYYY/MM/DD/<id>.json, dated by creation time in UTC.
func ObjectName(entry domain.ExtractionEntry) string {
	return path.Join(ObjectPrefix, entry.CreatedAt.UTC().Format("2006/01/02"), entry.ID+".json")
}
