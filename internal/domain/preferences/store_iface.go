package preferences

import (
	"context"
	"encoding/json"
)

type StoreAPI interface {
	Get(ctx context.Context, userID, key string) (Preference, error)
	Put(ctx context.Context, userID, key string, value json.RawMessage) (Preference, error)
	Delete(ctx context.Context, userID, key string) error
}
