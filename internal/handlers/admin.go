package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/systemage/systemagego/internal/models"
	"github.com/systemage/systemagego/internal/store"
)

// adminListProducts returns the full catalog including inactive entries.
func (r *Router) adminListProducts(w http.ResponseWriter, req *http.Request) {
	products, err := r.store.ListProducts(req.Context(), false)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// adminCreateProduct inserts a catalog entry.
func (r *Router) adminCreateProduct(w http.ResponseWriter, req *http.Request) {
	var product models.MarketplaceProduct
	if err := json.NewDecoder(req.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if product.Name == "" {
		respondError(w, http.StatusBadRequest, "Product name is required")
		return
	}
	product.ID = ""

	if err := r.store.CreateProduct(req.Context(), &product); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// adminUpdateProduct replaces a catalog entry's fields.
func (r *Router) adminUpdateProduct(w http.ResponseWriter, req *http.Request) {
	productID := mux.Vars(req)["id"]

	existing, err := r.store.GetProduct(req.Context(), productID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}

	var update models.MarketplaceProduct
	if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	update.ID = existing.ID
	update.CreatedAt = existing.CreatedAt

	if err := r.store.UpdateProduct(req.Context(), &update); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	respondJSON(w, http.StatusOK, update)
}

// adminDeleteProduct removes a catalog entry.
func (r *Router) adminDeleteProduct(w http.ResponseWriter, req *http.Request) {
	productID := mux.Vars(req)["id"]
	err := r.store.DeleteProduct(req.Context(), productID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// adminListUsers returns all accounts.
func (r *Router) adminListUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.store.ListUsers(req.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// RoleUpdateRequest changes an account's role.
type RoleUpdateRequest struct {
	Role string `json:"role"`
}

// adminUpdateUserRole promotes or demotes an account.
func (r *Router) adminUpdateUserRole(w http.ResponseWriter, req *http.Request) {
	userID := mux.Vars(req)["id"]

	var roleReq RoleUpdateRequest
	if err := json.NewDecoder(req.Body).Decode(&roleReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if roleReq.Role != "user" && roleReq.Role != "admin" {
		respondError(w, http.StatusBadRequest, "Role must be user or admin")
		return
	}

	user, err := r.store.GetUserByID(req.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	user.Role = roleReq.Role
	if err := r.store.SaveUser(req.Context(), user); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
