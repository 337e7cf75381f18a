package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	"github.com/Tanvirgit07/Tomato-seller/internal/service"
	"github.com/Tanvirgit07/Tomato-seller/internal/session"
	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
	"github.com/Tanvirgit07/Tomato-seller/pkg/httputil"
	"github.com/Tanvirgit07/Tomato-seller/pkg/pagination"
	"github.com/Tanvirgit07/Tomato-seller/pkg/validator"
)

// DashboardHandler serves the dashboard shell and its JSON data endpoints.
type DashboardHandler struct {
	service *service.DashboardService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard HTTP handler.
func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: logger}
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// currentSeller returns the session placed in the context by the route
// guard, writing a 401 when it is missing.
func (h *DashboardHandler) currentSeller(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthenticated("sign in to continue"), h.logger)
		return domain.Session{}, false
	}
	return sess, true
}

// Home handles GET /.
func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Page handles GET /dashboard.
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSeller(w, r)
	if !ok {
		return
	}
	renderPage(w, r, h.logger, http.StatusOK, dashboardTemplate, dashboardPageData{
		Name:         sess.Name,
		Email:        sess.Email,
		ProfileImage: sess.ProfileImage,
	})
}

// Overview handles GET /dashboard/api/overview.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.Overview(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cards)
}

// Revenue handles GET /dashboard/api/revenue.
func (h *DashboardHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RevenueSummary(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, summary)
}

// Analytics handles GET /dashboard/api/analytics?range=daily|monthly.
func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	rangeType := r.URL.Query().Get("range")
	if rangeType == "" {
		rangeType = domain.AnalyticsDaily
	}
	summary, err := h.service.AnalyticsSummary(r.Context(), rangeType)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, summary)
}

// ListOrders handles GET /dashboard/api/orders.
func (h *DashboardHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSeller(w, r)
	if !ok {
		return
	}
	result, err := h.service.SellerOrders(r.Context(), sess.Email, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetOrder handles GET /dashboard/api/orders/{id}.
func (h *DashboardHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSeller(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	order, err := h.service.SellerOrder(r.Context(), id, sess.Email)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// DeleteOrder handles DELETE /dashboard/api/orders/{id}.
func (h *DashboardHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.service.DeleteOrder)
}

// ListProducts handles GET /dashboard/api/products?status=.
func (h *DashboardHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = domain.ProductStatusPending
	}
	products, err := h.service.Products(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// UpdateProductStatus handles PATCH /dashboard/api/products/{id}/status.
func (h *DashboardHandler) UpdateProductStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.UpdateProductStatusInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.UpdateProductStatus(r.Context(), id, req.Status); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

// DeleteProduct handles DELETE /dashboard/api/products/{id}.
func (h *DashboardHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.service.DeleteProduct)
}

// DeleteCategory handles DELETE /dashboard/api/categories/{id}.
func (h *DashboardHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.service.DeleteCategory)
}

// DeleteSubcategory handles DELETE /dashboard/api/subcategories/{id}.
func (h *DashboardHandler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.service.DeleteSubcategory)
}

func (h *DashboardHandler) deleteByID(w http.ResponseWriter, r *http.Request, del func(context.Context, string) error) {
	id, ok := httputil.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := del(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, DeleteResponse{ID: id, Deleted: true})
}
