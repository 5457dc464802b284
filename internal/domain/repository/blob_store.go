package repository

import "context"

// BlobStore is the JSON key-value mirror used for the fact cache and the
// per-account entitlement mirror. Entries are advisory: last writer wins,
// nothing is ever deleted, and every value is re-derivable from a later,
// fuller webhook event.
type BlobStore interface {
	// ReadJSON returns nil, nil when the key is absent.
	ReadJSON(ctx context.Context, key string) (map[string]interface{}, error)

	WriteJSON(ctx context.Context, key string, value map[string]interface{}) error
}
