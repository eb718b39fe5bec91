package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the catalog over HTTP.
type Handler struct {
	Store  *Store
	Logger *slog.Logger
}

// Routes mounts the catalog endpoints on r. Reads of products, categories
// and suppliers are public; everything else goes through protect.
func (h *Handler) Routes(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{id}", h.getProduct)
		r.With(protect).Post("/", h.createProduct)
		r.With(protect).Put("/{id}", h.updateProduct)
		r.With(protect).Delete("/{id}", h.deleteProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Get("/{id}", h.getCategory)
		r.With(protect).Post("/", h.createCategory)
		r.With(protect).Put("/{id}", h.updateCategory)
		r.With(protect).Delete("/{id}", h.deleteCategory)
	})
	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", h.listSuppliers)
		r.Get("/{id}", h.getSupplier)
		r.With(protect).Post("/", h.createSupplier)
		r.With(protect).Put("/{id}", h.updateSupplier)
		r.With(protect).Delete("/{id}", h.deleteSupplier)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Use(protect)
		r.Get("/", h.listCustomers)
		r.Get("/{id}", h.getCustomer)
		r.Post("/", h.createCustomer)
		r.Put("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Use(protect)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Post("/", h.createOrder)
		r.Put("/{id}", h.updateOrder)
		r.Delete("/{id}", h.deleteOrder)
	})
}

// Products

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.ListProducts(r.Context(), ProductFilter{Query: r.URL.Query().Get("q")})
	h.respondList(w, len(res), res, err)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.Store.GetProduct(r.Context(), id)
	h.respond(w, http.StatusOK, p, err)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in Product
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Store.CreateProduct(r.Context(), in)
	h.respond(w, http.StatusCreated, p, err)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in ProductPatch
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Store.UpdateProduct(r.Context(), id, in)
	h.respond(w, http.StatusOK, p, err)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.respondDeleted(w, h.Store.DeleteProduct(r.Context(), id))
}

// Categories

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.ListCategories(r.Context())
	h.respondList(w, len(res), res, err)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.Store.GetCategory(r.Context(), id)
	h.respond(w, http.StatusOK, c, err)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in Category
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Store.CreateCategory(r.Context(), in.Name)
	h.respond(w, http.StatusCreated, c, err)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in CategoryPatch
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Store.UpdateCategory(r.Context(), id, in)
	h.respond(w, http.StatusOK, c, err)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.respondDeleted(w, h.Store.DeleteCategory(r.Context(), id))
}

// Suppliers

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.ListSuppliers(r.Context())
	h.respondList(w, len(res), res, err)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sp, err := h.Store.GetSupplier(r.Context(), id)
	h.respond(w, http.StatusOK, sp, err)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var in Supplier
	if !decode(w, r, &in) {
		return
	}
	sp, err := h.Store.CreateSupplier(r.Context(), in)
	h.respond(w, http.StatusCreated, sp, err)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in SupplierPatch
	if !decode(w, r, &in) {
		return
	}
	sp, err := h.Store.UpdateSupplier(r.Context(), id, in)
	h.respond(w, http.StatusOK, sp, err)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.respondDeleted(w, h.Store.DeleteSupplier(r.Context(), id))
}

// Customers

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.ListCustomers(r.Context())
	h.respondList(w, len(res), res, err)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.Store.GetCustomer(r.Context(), id)
	h.respond(w, http.StatusOK, c, err)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in Customer
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Store.CreateCustomer(r.Context(), in)
	h.respond(w, http.StatusCreated, c, err)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in CustomerPatch
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Store.UpdateCustomer(r.Context(), id, in)
	h.respond(w, http.StatusOK, c, err)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.respondDeleted(w, h.Store.DeleteCustomer(r.Context(), id))
}

// Orders

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := OrderFilter{Status: q.Get("status")}
	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		f.CustomerID = id
	}
	res, err := h.Store.ListOrders(r.Context(), f)
	h.respondList(w, len(res), res, err)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	o, err := h.Store.GetOrder(r.Context(), id)
	h.respond(w, http.StatusOK, o, err)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in OrderInput
	if !decode(w, r, &in) {
		return
	}
	o, err := h.Store.CreateOrder(r.Context(), in)
	h.respond(w, http.StatusCreated, o, err)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in OrderPatch
	if !decode(w, r, &in) {
		return
	}
	o, err := h.Store.UpdateOrder(r.Context(), id, in)
	h.respond(w, http.StatusOK, o, err)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.respondDeleted(w, h.Store.DeleteOrder(r.Context(), id))
}

// Helpers

func (h *Handler) respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func (h *Handler) respondList(w http.ResponseWriter, n int, v any, err error) {
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(n))
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) respondDeleted(w http.ResponseWriter, err error) {
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("catalog store", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
