package storage

import (
	"context"
	"path"
	"time"

	"golang.org/x/sync/errgroup"
)

const maxParallelUploads = 4

// File is one artifact to publish
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Published is where a file ended up
type Published struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Publisher uploads a run's artifacts under <prefix>/<runID>/ and presigns them
type Publisher struct {
	store  ObjectStorage
	prefix string
	ttl    time.Duration
}

func NewPublisher(store ObjectStorage, prefix string, ttl time.Duration) *Publisher {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Publisher{store: store, prefix: prefix, ttl: ttl}
}

// Publish uploads files concurrently. The result is index aligned with files.
// The first failure cancels the remaining uploads.
func (p *Publisher) Publish(ctx context.Context, runID string, files []File) ([]Published, error) {
	out := make([]Published, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i, f := range files {
		g.Go(func() error {
			key := path.Join(p.prefix, runID, f.Name)
			info, err := p.store.UploadObject(gctx, key, f.Data, f.ContentType)
			if err != nil {
				return err
			}
			u, err := p.store.PresignGet(gctx, info.Key, p.ttl)
			if err != nil {
				return err
			}
			out[i] = Published{Key: info.Key, URL: u}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
