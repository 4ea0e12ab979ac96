package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/luminis-shop/luminis-api/internal/catalog"
)

type ProductsHandler struct {
	Catalog      *catalog.Repo
	ImageBaseURL string
	Log          *zap.Logger
}

func (h *ProductsHandler) Register(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Get("/api/products", h.list)
	r.Get("/api/products/{id}", h.get)
	r.Get("/api/products/{id}/options", h.options)
	r.With(guard).Get("/api/products-quantity", h.quantities)
}

func (h *ProductsHandler) imageURL(name string) string {
	return fmt.Sprintf("%s/%s.png", h.ImageBaseURL, name)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Catalog.ListProducts(ctx, r.URL.Query().Get("brand"))
	if err != nil {
		h.Log.Error("list products failed", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	for i := range products {
		products[i].ImageURL = h.imageURL(products[i].Name)
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "products": products})
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			fail(w, http.StatusNotFound, "Product not found")
			return
		}
		h.Log.Error("get product failed", zap.Int64("product_id", id), zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}
	p.ImageURL = h.imageURL(p.Name)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": p})
}

func (h *ProductsHandler) options(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	opts, err := h.Catalog.ListSetOptions(ctx, id)
	if err != nil {
		h.Log.Error("list set options failed", zap.Int64("product_id", id), zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch options")
		return
	}
	if opts == nil {
		opts = []catalog.SetOption{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "options": opts})
}

func (h *ProductsHandler) quantities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Catalog.ListQuantities(ctx)
	if err != nil {
		h.Log.Error("list quantities failed", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch product quantities")
		return
	}
	if products == nil {
		products = []catalog.ProductQuantity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "products": products})
}
