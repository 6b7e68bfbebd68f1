package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter() *chi.Mux {
	r := chi.NewRouter()
	svc := NewService(NewMemoryStorage(), newFakeCatalog(productA, productB), nil)
	NewHandler(svc, time.Hour, zap.NewNop()).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, cartID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if cartID != "" {
		req.Header.Set(HeaderName, cartID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetCartMintsID(t *testing.T) {
	rec := do(t, newTestRouter(), http.MethodGet, "/api/v1/cart/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	id := rec.Header().Get(HeaderName)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
}

func TestCartFlowOverHTTP(t *testing.T) {
	router := newTestRouter()
	id := uuid.NewString()

	rec := do(t, router, http.MethodPost, "/api/v1/cart/items", id, `{"product_id":"`+productA.ID.String()+`","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = do(t, router, http.MethodPost, "/api/v1/cart/items", id, `{"product_id":"`+productB.ID.String()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var v struct {
		Subtotal   string `json:"subtotal"`
		Shipping   string `json:"shipping"`
		Total      string `json:"total"`
		TotalItems int    `json:"total_items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.Equal(t, "50.00", v.Subtotal)
	assert.Equal(t, "0.00", v.Shipping)
	assert.Equal(t, "50.00", v.Total)
	assert.Equal(t, 3, v.TotalItems)

	rec = do(t, router, http.MethodDelete, "/api/v1/cart/items/"+productB.ID.String(), id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.Equal(t, "45.99", v.Total)

	rec = do(t, router, http.MethodPatch, "/api/v1/cart/items/"+productA.ID.String(), id, `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.Equal(t, 0, v.TotalItems)
}

func TestAddItemErrors(t *testing.T) {
	router := newTestRouter()
	id := uuid.NewString()

	rec := do(t, router, http.MethodPost, "/api/v1/cart/items", id, `{"product_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/cart/items", id, `{"product_id":"`+productA.ID.String()+`","quantity":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/cart/items", id, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenCloseToggle(t *testing.T) {
	router := newTestRouter()
	id := uuid.NewString()

	isOpen := func(rec *httptest.ResponseRecorder) bool {
		var v struct {
			IsOpen bool `json:"is_open"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
		return v.IsOpen
	}

	assert.True(t, isOpen(do(t, router, http.MethodPost, "/api/v1/cart/open", id, "")))
	assert.False(t, isOpen(do(t, router, http.MethodPost, "/api/v1/cart/close", id, "")))
	assert.True(t, isOpen(do(t, router, http.MethodPost, "/api/v1/cart/toggle", id, "")))
}

func TestIDFromRequestPrefersHeaderAndIgnoresGarbage(t *testing.T) {
	header, cookie := uuid.NewString(), uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderName, header)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	got, ok := IDFromRequest(req)
	assert.True(t, ok)
	assert.Equal(t, header, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderName, "../../etc")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	got, ok = IDFromRequest(req)
	assert.True(t, ok)
	assert.Equal(t, cookie, got)

	_, ok = IDFromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
