package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
	"real4d-backend/internal/metrics"
)

// removeBatchSize bounds the number of paths per remove request.
const removeBatchSize = 1000

// StorageClient operates on a single Supabase Storage bucket.
type StorageClient struct {
	client  *storage.Client
	bucket  string
	metrics *metrics.Metrics
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string, m *metrics.Metrics) *StorageClient {
	baseURL := strings.TrimRight(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		metrics: m,
	}
}

func (s *StorageClient) Bucket() string {
	return s.bucket
}

// RemoveFiles deletes the objects at paths. Paths that do not exist are ignored
// by the storage API.
func (s *StorageClient) RemoveFiles(ctx context.Context, paths []string) error {
	for start := 0; start < len(paths); start += removeBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+removeBatchSize, len(paths))

		began := time.Now()
		_, err := s.client.RemoveFile(s.bucket, paths[start:end])
		s.metrics.ObserveSince("storage", "remove_"+s.bucket, began)
		if err != nil {
			return fmt.Errorf("failed to delete files from %s: %w", s.bucket, err)
		}
	}
	return nil
}
