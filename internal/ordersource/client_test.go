package ordersource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ordersJSON = `[
	{"order_id": 1, "first_name": "Ana", "last_name": "Souza", "email": "a@b.com",
	 "product_id": 316, "product_name": "Meetup", "order_date": "2025-05-01",
	 "time_checkin": "2025-05-10 19:00:00", "checkin_latitude": null},
	{"order_id": 2, "first_name": "Bia", "email": "c@d.com", "product_id": 316, "time_checkin": ""},
	{"order_id": 0, "email": "broken@x.com", "product_id": 316}
]`

func newTestClient(url string) *Client {
	c := NewClient(url, 5*time.Second, zap.NewNop())
	c.initialInterval = time.Millisecond
	return c
}

func TestFetchOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "316", r.URL.Query().Get("product_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ordersJSON))
	}))
	defer srv.Close()

	orders, err := newTestClient(srv.URL).FetchOrders(context.Background(), 316)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, int64(1), orders[0].OrderID)
	assert.True(t, orders[0].CheckedIn())
	assert.Equal(t, "", orders[0].CheckinLatitude)
	assert.False(t, orders[1].CheckedIn())
}

func TestFetchOrders_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	orders, err := newTestClient(srv.URL).FetchOrders(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchOrders_GivesUpAfterThreeAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchOrders(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusTooManyRequests))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchOrders_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unknown product", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchOrders(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "unknown product")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchOrders_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchOrders(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode orders")
}

func TestFetchOrders_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).FetchOrders(context.Background(), 1)
	require.Error(t, err)
}
