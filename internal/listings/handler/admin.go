package handler

import (
	"net/http"

	"pisos/internal/listings/service"
	httputil "pisos/pkg/http"
	"pisos/pkg/logger"
	"pisos/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// AdminPrefix is guarded by the admin bearer token middleware.
const AdminPrefix = "/api/v1/admin"

type AdminHandler struct {
	service service.ListingService
	log     *logger.Logger
}

func NewAdminHandler(service service.ListingService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
	}
}

// Search lists every listing, inactive included, unless active=true.
func (h *AdminHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	values := r.URL.Query()
	query, filters, err := parseSearchQuery(values)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	active, err := httputil.QueryBool(values, "active")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	query.Filter.IncludeInactive = active == nil || !*active
	filters.Active = active

	result, err := h.service.List(r.Context(), query)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, SearchResponse{
		Data:     result.Listings,
		Filters:  filters,
		MaxPrice: result.MaxPrice,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "AdminSearch", "operation", "WriteJSON", "error", err)
	}
}

func (h *AdminHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listing, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, listing); err != nil {
		h.log.Error("failed to write success response", "handler", "AdminGetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.ListingInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	result, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, result.Listing, result.Info); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input model.ListingInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	result, err := h.service.Update(r.Context(), ps.ByName("id"), &input)
	h.writeResult(w, "Update", result, err)
}

func (h *AdminHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.Deactivate(r.Context(), ps.ByName("id"))
	h.writeResult(w, "Deactivate", result, err)
}

func (h *AdminHandler) Reactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.Reactivate(r.Context(), ps.ByName("id"))
	h.writeResult(w, "Reactivate", result, err)
}

func (h *AdminHandler) writeResult(w http.ResponseWriter, handler string, result *service.WriteResult, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccessWithInfo(w, result.Listing, result.Info); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccessWithInfo", "error", err)
	}
}

func (h *AdminHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(AdminPrefix+"/listings", h.Search)
	router.POST(AdminPrefix+"/listings", h.Create)
	router.GET(AdminPrefix+"/listings/id/:id", h.GetByID)
	router.PUT(AdminPrefix+"/listings/id/:id", h.Update)
	router.DELETE(AdminPrefix+"/listings/id/:id", h.Deactivate)
	router.POST(AdminPrefix+"/listings/id/:id/activate", h.Reactivate)
}
