package certificates

import "context"

type StoreAPI interface {
	Writer
	List(ctx context.Context, workerID string) ([]Certificate, error)
	FileInUse(ctx context.Context, path string) (bool, error)
}
