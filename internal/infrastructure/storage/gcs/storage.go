// Package gcs keeps source documents in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type Storage struct {
	client *storage.Client
	bucket string
	prefix string
}

// New uses application default credentials.
func New(ctx context.Context, bucket, prefix string) (*Storage, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Storage{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) object(key string) *storage.ObjectHandle {
	name := key
	if s.prefix != "" {
		name = path.Join(s.prefix, key)
	}
	return s.client.Bucket(s.bucket).Object(name)
}

func (s *Storage) Save(ctx context.Context, key string, data io.Reader) error {
	w := s.object(key).NewWriter(ctx)
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return domain.WrapError(domain.ErrTemporary, "gcs write object", err)
	}
	if err := w.Close(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "gcs commit object", err)
	}
	return nil
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "gcs open object", err)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "gcs open object", err)
	}
	return r, nil
}
