package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"rentalsync/res/store"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// archiveDocument is the payload written per session: the aggregate
// counters plus the full ordered decision log, so the archive can replay
// what happened independent of the primary Store's own retention.
type archiveDocument struct {
	Session *store.SyncSession `json:"session"`
	Entries []store.LogEntry   `json:"entries"`
}

// gcsArchiver writes one JSON document per session under
// sessions/<session_id>.json.
type gcsArchiver struct {
	client     *storage.Client
	bucketName string
}

// NewGCS creates an Archiver backed by a Google Cloud Storage bucket. If
// credentialsPath is empty, application-default credentials are used
// (matches the rest of the service's GCS wiring).
func NewGCS(ctx context.Context, bucketName, credentialsPath string) (Archiver, error) {
	var client *storage.Client
	var err error

	if credentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsPath))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &gcsArchiver{client: client, bucketName: bucketName}, nil
}

func (a *gcsArchiver) Archive(ctx context.Context, session *store.SyncSession, entries []store.LogEntry) error {
	objectPath := fmt.Sprintf("sessions/%s.json", session.ID)

	obj := a.client.Bucket(a.bucketName).Object(objectPath)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"

	enc := json.NewEncoder(writer)
	if err := enc.Encode(archiveDocument{Session: session, Entries: entries}); err != nil {
		writer.Close()
		return fmt.Errorf("failed to encode archive document: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close archive writer: %w", err)
	}

	return nil
}

// Close releases the underlying GCS client.
func (a *gcsArchiver) Close() error {
	return a.client.Close()
}

var _ io.Closer = (*gcsArchiver)(nil)
