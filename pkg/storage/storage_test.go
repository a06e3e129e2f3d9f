package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/structs"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
)

func newMemoryStore() Store {
	return NewMemory(cache.New(cache.Params{Logger: logger.NewNop()}))
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := newMemoryStore()

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, structs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendList_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	key := UserKey("u1", KeyAddresses)

	for _, v := range []string{"a", "b", "c"} {
		if err := AppendList(ctx, s, key, v); err != nil {
			t.Fatalf("append %s: %v", v, err)
		}
	}

	got, err := ReadList[string](ctx, s, key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestAppendList_ConcurrentWritersDoNotLoseItems(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	key := UserKey("u1", KeyOrders)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = AppendList(ctx, s, key, i)
		}(i)
	}
	wg.Wait()

	got, err := ReadList[int](ctx, s, key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 items, got %d", len(got))
	}
}

func TestReadJSON_Missing(t *testing.T) {
	var token string
	ok, err := ReadJSON(context.Background(), newMemoryStore(), UserKey("u1", KeyToken), &token)
	if err != nil || ok {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	key := UserKey("u1", KeyToken)

	if err := WriteJSON(ctx, s, key, "bearer-1"); err != nil {
		t.Fatalf("write: %v", err)
	}
	var token string
	ok, err := ReadJSON(ctx, s, key, &token)
	if err != nil || !ok || token != "bearer-1" {
		t.Fatalf("unexpected (%v, %v, %q)", ok, err, token)
	}
}
