package settings

import (
	"context"
	"encoding/json"
)

// Repository stores one JSON document per settings key.
type Repository interface {
	List(ctx context.Context) (map[string]json.RawMessage, error)
	Upsert(ctx context.Context, key string, value json.RawMessage) error
	// InsertMissing stores value only when key has no row yet.
	InsertMissing(ctx context.Context, key string, value json.RawMessage) error
}
