// Package snapshot is the flat key to JSON document persistence that is always
// available, even when the document store is not.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	KeyProducts    = "products"
	KeyUsers       = "users"
	KeyOrders      = "orders"
	KeyCart        = "cart"
	KeyCurrentUser = "currentUser"
)

// FavoritesKey is the per-user favorites list key.
func FavoritesKey(userID string) string { return "favorites_" + userID }

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// LoadList decodes a JSON array. A missing key or a null document is an empty list.
func LoadList[T any](ctx context.Context, s Store, key string) ([]T, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if !ok {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", key, err)
	}
	if out == nil {
		out = make([]T, 0)
	}
	return out, nil
}

func SaveList[T any](ctx context.Context, s Store, key string, items []T) error {
	if items == nil {
		items = make([]T, 0)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// LoadValue returns nil when the key is absent.
func LoadValue[T any](ctx context.Context, s Store, key string) (*T, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	var v *T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", key, err)
	}
	return v, nil
}

func SaveValue[T any](ctx context.Context, s Store, key string, v *T) error {
	if v == nil {
		return s.Remove(ctx, key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
