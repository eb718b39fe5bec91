package catalog

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAuthHeader = "X-Test-Auth"

func requireHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(testAuthHeader) == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	s, mock := newMockStore(t)
	h := &Handler{Store: s, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	r := chi.NewRouter()
	h.Routes(r, requireHeader)
	return r, mock
}

func do(h http.Handler, method, target, body string, authed bool) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if authed {
		req.Header.Set(testAuthHeader, "1")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ListProductsPublic(t *testing.T) {
	h, mock := newTestRouter(t)
	mock.ExpectQuery(`FROM products`).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(int64(1), "Leche", 3.5, int64(1), int64(3)).
			AddRow(int64(2), "Yogur", 4.0, int64(1), int64(3)))

	rec := do(h, http.MethodGet, "/products/?q=le", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	assert.JSONEq(t, `[
		{"id":1,"name":"Leche","price":3.5,"category_id":1,"supplier_id":3},
		{"id":2,"name":"Yogur","price":4,"category_id":1,"supplier_id":3}
	]`, rec.Body.String())
}

func TestHandler_ListOrdersTotalCountsEveryRow(t *testing.T) {
	h, mock := newTestRouter(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(orderRowColumns)
	for i := 250; i >= 1; i-- {
		rows.AddRow(
			int64(i), int64(1), int64(2), 1, "pendiente", nil, created.Add(time.Duration(i)*time.Minute),
			int64(1), "Mercado Express", "ventas@mercadoexpress.com", nil,
			int64(2), "Queso", 12.0, int64(1), int64(3),
		)
	}
	mock.ExpectQuery(`FROM orders o .* ORDER BY o.created_at DESC, o.id DESC$`).WillReturnRows(rows)

	rec := do(h, http.MethodGet, "/orders/", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "250", rec.Header().Get("X-Total-Count"))

	var got []Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 250)
	assert.Equal(t, int64(250), got[0].ID, "newest first")
}

func TestHandler_WritesNeedAuth(t *testing.T) {
	h, mock := newTestRouter(t)

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/products/"},
		{http.MethodPut, "/products/1"},
		{http.MethodDelete, "/categories/1"},
		{http.MethodPost, "/suppliers/"},
		{http.MethodGet, "/customers/"},
		{http.MethodGet, "/orders/1"},
	} {
		rec := do(h, tc.method, tc.target, `{}`, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.target)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_GetProductNotFound(t *testing.T) {
	h, mock := newTestRouter(t)
	mock.ExpectQuery(`FROM products WHERE id`).WithArgs(int64(42)).WillReturnError(sql.ErrNoRows)

	rec := do(h, http.MethodGet, "/products/42", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"not found"}`, rec.Body.String())
}

func TestHandler_BadID(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(h, http.MethodGet, "/categories/abc", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CreateCategory(t *testing.T) {
	h, mock := newTestRouter(t)
	mock.ExpectQuery(`INSERT INTO categories`).WithArgs("Bebidas").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	rec := do(h, http.MethodPost, "/categories/", `{"name":"Bebidas"}`, true)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":5,"name":"Bebidas"}`, rec.Body.String())
}

func TestHandler_CreateCategoryInvalid(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(h, http.MethodPost, "/categories/", `{"name":""}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/categories/", `not json`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CreateSupplierConflict(t *testing.T) {
	h, mock := newTestRouter(t)
	mock.ExpectQuery(`INSERT INTO suppliers`).WillReturnError(&pqUniqueError)

	rec := do(h, http.MethodPost, "/suppliers/", `{"name":"Burbano Family"}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_DeleteOrder(t *testing.T) {
	h, mock := newTestRouter(t)
	mock.ExpectExec(`DELETE FROM orders WHERE id`).WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := do(h, http.MethodDelete, "/orders/3", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandler_ListOrdersBadCustomer(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(h, http.MethodGet, "/orders/?customer_id=x", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_StoreFailure(t *testing.T) {
	h, mock := newTestRouter(t)
	mock.ExpectQuery(`FROM categories`).WillReturnError(io.ErrUnexpectedEOF)

	rec := do(h, http.MethodGet, "/categories/", "", false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"internal error"}`, rec.Body.String())
}

var pqUniqueError = pq.Error{Code: "23505"}
