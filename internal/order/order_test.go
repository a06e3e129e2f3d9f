package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/structs"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
	"storefront/pkg/storage"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", &http.Client{Timeout: 2 * time.Second}, logger.NewNop())
}

func sampleOrder() structs.CreateOrder {
	return structs.CreateOrder{
		OrderItems:    []structs.OrderItem{{ProductID: "p1", Name: "Dosa", Quantity: 2, Price: decimal.NewFromInt(60)}},
		PaymentMethod: structs.PaymentCashOnDelivery,
		PaymentStatus: structs.PaymentStatusPending,
		ItemsPrice:    decimal.NewFromInt(120),
		TotalPrice:    decimal.NewFromInt(120),
	}
}

func TestCreate_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/order/create-order" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		var body structs.CreateOrder
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.OrderItems) != 1 || !body.TotalPrice.Equal(decimal.NewFromInt(120)) {
			t.Errorf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"orders":[{"_id":"o1","status":"pending","totalPrice":"120"}]}`))
	})

	orders, err := c.Create(context.Background(), "tok", sampleOrder())
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].ID != "o1" {
		t.Fatalf("unexpected orders %+v", orders)
	}
}

func TestCreate_UnavailableShops(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Some shops cannot deliver","unavailableShops":[{"shopId":"s1","shopName":"Annapoorna"}]}`))
	})

	_, err := c.Create(context.Background(), "tok", sampleOrder())
	var uerr *structs.UnavailableShopsError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *UnavailableShopsError, got %v", err)
	}
	if len(uerr.Shops) != 1 || uerr.Shops[0].Name != "Annapoorna" {
		t.Fatalf("unexpected shops %+v", uerr.Shops)
	}
	if !errors.Is(err, structs.ErrUnavailableShops) || !errors.Is(err, structs.ErrOrderSubmission) {
		t.Fatal("unavailable shops must match both sentinels")
	}
}

func TestCreate_Failures(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"boom"}`))
		}},
		{"no orders", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"orders":[]}`)) }},
		{"garbage", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.h)
			_, err := c.Create(context.Background(), "tok", sampleOrder())

			var serr *structs.OrderSubmissionError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *OrderSubmissionError, got %v", err)
			}
			if errors.Is(err, structs.ErrUnavailableShops) {
				t.Fatal("generic failure must not look like a location failure")
			}
		})
	}
}

func TestCreate_MissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	})
	if _, err := c.Create(context.Background(), " ", sampleOrder()); !errors.Is(err, structs.ErrOrderSubmission) {
		t.Fatalf("expected submission error, got %v", err)
	}
}

func TestHistory_AppendList(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(cache.New(cache.Params{Logger: logger.NewNop()}))
	h := NewHistory(HistoryParams{Store: store, Logger: logger.NewNop()})

	if list, err := h.List(ctx, "u1"); err != nil || len(list) != 0 {
		t.Fatalf("expected empty history, got %+v, %v", list, err)
	}
	for _, id := range []string{"a", "b"} {
		if err := h.Append(ctx, "u1", structs.PlacedOrder{LocalID: id, TotalPrice: decimal.NewFromInt(150)}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := h.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].LocalID != "a" || list[1].LocalID != "b" {
		t.Fatalf("unexpected history %+v", list)
	}
	if !list[0].TotalPrice.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("total not preserved: %s", list[0].TotalPrice)
	}
}
