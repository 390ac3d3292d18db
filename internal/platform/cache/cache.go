package cache

import (
	"context"
	"time"
)

// NamespaceData is bumped on every successful write so cached read models expire.
const NamespaceData = "data"

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Version(ctx context.Context, namespace string) (int64, error)
	Bump(ctx context.Context, namespace string) error
}

// Noop never stores anything. Used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Version(context.Context, string) (int64, error)           { return 0, nil }
func (Noop) Bump(context.Context, string) error                       { return nil }
