package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/structs"
)

// ReadList decodes the JSON array stored under key. A missing key is an
// empty list.
func ReadList[T any](ctx context.Context, s Store, key string) ([]T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, structs.ErrNotFound) {
			return []T{}, nil
		}
		return nil, err
	}
	return decodeList[T](raw)
}

// AppendList adds item to the end of the JSON array stored under key.
func AppendList[T any](ctx context.Context, s Store, key string, item T) error {
	return s.Update(ctx, key, func(current []byte) ([]byte, error) {
		list, err := decodeList[T](current)
		if err != nil {
			return nil, err
		}
		return json.Marshal(append(list, item))
	})
}

// ReadJSON reports false when the key does not exist.
func ReadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, structs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return true, nil
}

func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

func decodeList[T any](raw []byte) ([]T, error) {
	list := []T{}
	if len(raw) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("storage: decode list: %w", err)
	}
	return list, nil
}
