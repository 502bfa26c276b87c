package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/download"
	"github.com/imrishuroy/certified-builder-api/internal/idempotency"
	"github.com/imrishuroy/certified-builder-api/internal/lookup"
	"github.com/imrishuroy/certified-builder-api/internal/registration"
	"github.com/imrishuroy/certified-builder-api/internal/tablestore/tablestoretest"
)

func init() { gin.SetMode(gin.TestMode) }

const prefix = "/api/v1"

type fakeRegistrar struct {
	calls int
	err   error
}

func (f *fakeRegistrar) Register(ctx context.Context, productID int64) (*registration.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &registration.Result{
		CertificateQuantity: 1,
		ExistingOrders:      []int64{},
		NewOrders:           []int64{productID * 10},
		InvalidOrders:       []int64{},
		ProcessingDate:      time.Date(2025, 5, 11, 9, 0, 0, 0, time.UTC),
	}, nil
}

type fakeSearcher struct {
	out []lookup.Projection
	err error
	got lookup.SearchRequest
}

func (f *fakeSearcher) Execute(ctx context.Context, req lookup.SearchRequest) ([]lookup.Projection, error) {
	f.got = req
	return f.out, f.err
}

type fakeDownloader struct {
	res *download.Response
	err error
}

func (f *fakeDownloader) Download(ctx context.Context, id string) (*download.Response, error) {
	return f.res, f.err
}

type fixture struct {
	router     *gin.Engine
	registrar  *fakeRegistrar
	searcher   *fakeSearcher
	downloader *fakeDownloader
	idem       *idempotency.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := tablestoretest.New().AddTable("idempotency", "idempotency_key")
	f := &fixture{
		router:     gin.New(),
		registrar:  &fakeRegistrar{},
		searcher:   &fakeSearcher{},
		downloader: &fakeDownloader{},
		idem:       idempotency.NewStore(db, "idempotency", time.Hour),
	}
	RegisterCertificateRoutes(f.router, HandlerConfig{
		Prefix:      prefix,
		Registrar:   f.registrar,
		Searcher:    f.searcher,
		Downloader:  f.downloader,
		Idempotency: f.idem,
		Logger:      zap.NewNop(),
	})
	return f
}

func (f *fixture) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreate_WithoutKey(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, prefix+"/certificate/create", `{"product_id":316}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["certificate_quantity"])
	assert.Equal(t, []any{float64(3160)}, body["new_orders"])
	assert.Equal(t, 1, f.registrar.calls)
}

func TestCreate_InvalidBody(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, prefix+"/certificate/create", `{"product_id":0}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, f.registrar.calls)
}

func TestCreate_ReplaysDoneResponse(t *testing.T) {
	f := newFixture(t)
	hdr := map[string]string{"Idempotency-Key": "k-1"}

	first := f.do(http.MethodPost, prefix+"/certificate/create", `{"product_id":316}`, hdr)
	require.Equal(t, http.StatusOK, first.Code)

	second := f.do(http.MethodPost, prefix+"/certificate/create", `{"product_id":316}`, hdr)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, f.registrar.calls)

	rec, err := f.idem.Get(context.Background(), "k-1")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StatusDone, rec.Status)
}

func TestCreate_InProgressIsAccepted(t *testing.T) {
	f := newFixture(t)
	_, err := f.idem.CreateIfNotExists(context.Background(), "k-2", 316)
	require.NoError(t, err)

	w := f.do(http.MethodPost, prefix+"/certificate/create", `{"product_id":316}`, map[string]string{"Idempotency-Key": "k-2"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 0, f.registrar.calls)
}

func TestCreate_FailureMarksFailedAndAllowsRetry(t *testing.T) {
	f := newFixture(t)
	hdr := map[string]string{"Idempotency-Key": "k-3"}
	f.registrar.err = errors.New("order source down")

	w := f.do(http.MethodPost, prefix+"/certificate/create", `{"product_id":316}`, hdr)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(500), body["status"])
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.Equal(t, "order source down", body["details"])

	rec, err := f.idem.Get(context.Background(), "k-3")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StatusFailed, rec.Status)

	f.registrar.err = nil
	w = f.do(http.MethodPost, prefix+"/certificate/create", `{"product_id":316}`, hdr)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, f.registrar.calls)
}

func TestFetch_Found(t *testing.T) {
	f := newFixture(t)
	id := "c-1"
	orderID := int64(123)
	f.searcher.out = []lookup.Projection{{ID: &id, OrderID: &orderID, Success: true}}

	w := f.do(http.MethodGet, prefix+"/certificate/fetch?order_id=123", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "c-1", out[0]["id"])
	assert.Equal(t, true, out[0]["success"])

	require.NotNil(t, f.searcher.got.OrderID)
	assert.Equal(t, int64(123), *f.searcher.got.OrderID)
	assert.Nil(t, f.searcher.got.Email)
	assert.Nil(t, f.searcher.got.ProductID)
}

func TestFetch_AnyEmailReachesSearcher(t *testing.T) {
	f := newFixture(t)
	email := "suzi"
	f.searcher.out = []lookup.Projection{{Email: &email}}

	w := f.do(http.MethodGet, prefix+"/certificate/fetch?email=suzi", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "suzi", out[0]["email"])
	assert.Equal(t, false, out[0]["success"])

	require.NotNil(t, f.searcher.got.Email)
	assert.Equal(t, "suzi", *f.searcher.got.Email)
	assert.Nil(t, f.searcher.got.OrderID)
	assert.Nil(t, f.searcher.got.ProductID)
}

func TestFetch_NoStrategyIs404(t *testing.T) {
	f := newFixture(t)
	orderID := int64(1)
	email := "a@b.com"
	f.searcher.err = &lookup.NoStrategyError{OrderID: &orderID, Email: &email}

	w := f.do(http.MethodGet, prefix+"/certificate/fetch?order_id=1&email=a@b.com", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Certificate not found", body["message"])
	assert.Equal(t, map[string]any{"order_id": float64(1), "email": "a@b.com"}, body["details"])
}

func TestFetch_StorageFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.searcher.err = fmt.Errorf("lookup %s: %w", lookup.ByEmail, errors.New("scan failed"))

	w := f.do(http.MethodGet, prefix+"/certificate/fetch?email=a@b.com", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["details"], "scan failed")
}

func TestFetch_InvalidQuery(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, prefix+"/certificate/fetch?product_id=-4", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownload(t *testing.T) {
	const id = "0b5e4c52-8f3a-4f8e-9d7c-2a1b3c4d5e6f"

	t.Run("found", func(t *testing.T) {
		f := newFixture(t)
		f.downloader.res = &download.Response{CertificateURL: "https://signed", Email: "a@b.com", ProductID: 5, Success: true}

		w := f.do(http.MethodGet, prefix+"/certificate/download?id="+id, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"certificate_url":"https://signed","email":"a@b.com","product_id":5,"success":true}`, w.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		f.downloader.err = fmt.Errorf("%w: %s", download.ErrNotFound, id)

		w := f.do(http.MethodGet, prefix+"/certificate/download?id="+id, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("not a uuid", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(http.MethodGet, prefix+"/certificate/download?id=abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
