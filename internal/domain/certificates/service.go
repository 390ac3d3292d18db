package certificates

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Files is the upload storage certificates keep their scans in.
type Files interface {
	FileRemover
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type Service struct {
	store StoreAPI
	files Files
}

func NewService(store StoreAPI, files Files) *Service {
	return &Service{store: store, files: files}
}

func (s *Service) List(ctx context.Context, workerID string) ([]Certificate, error) {
	return s.store.List(ctx, workerID)
}

// CommitBatch stages ops against the worker's stored certificates and commits
// them. When any op is invalid nothing is written and the batch's new uploads
// are removed.
func (s *Service) CommitBatch(ctx context.Context, workerID string, ops []Op) ([]Certificate, error) {
	stored, err := s.store.List(ctx, workerID)
	if err != nil {
		return nil, err
	}
	buf := NewBuffer(workerID, stored)
	for _, op := range ops {
		if _, err := buf.Stage(op); err != nil {
			buf.Discard(ctx, s.files)
			s.removeUnreferenced(ctx, stored, op.Certificate.FilePath)
			return nil, err
		}
	}
	if buf.Changes().Empty() {
		buf.Discard(ctx, s.files)
		return stored, nil
	}
	return buf.Commit(ctx, s.store, s.files)
}

// Upload stores a certificate scan ahead of the batch that references it.
func (s *Service) Upload(ctx context.Context, workerID, filename string, r io.Reader) (string, error) {
	key := path.Join("certificates", workerID, uuid.NewString()+strings.ToLower(path.Ext(filename)))
	return s.files.Put(ctx, key, r)
}

// DiscardUpload removes an uploaded file the form gave up on. Files already
// attached to a stored certificate are refused.
func (s *Service) DiscardUpload(ctx context.Context, filePath string) error {
	inUse, err := s.store.FileInUse(ctx, filePath)
	if err != nil {
		return err
	}
	if inUse {
		return ErrFileInUse
	}
	return s.files.Remove(ctx, filePath)
}

func (s *Service) Open(ctx context.Context, filePath string) (io.ReadCloser, error) {
	return s.files.Open(ctx, filePath)
}

func (s *Service) removeUnreferenced(ctx context.Context, stored []Certificate, filePath string) {
	if filePath == "" {
		return
	}
	for _, c := range stored {
		if c.FilePath == filePath {
			return
		}
	}
	removeFiles(ctx, s.files, []string{filePath})
}
