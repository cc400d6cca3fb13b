package handler

import (
	"net/http"
	"net/url"

	"pisos/internal/listings/service"
	apperrors "pisos/pkg/errors"
	httputil "pisos/pkg/http"
	"pisos/pkg/logger"
	"pisos/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// SearchResponse echoes the applied filters so clients can keep their form state.
type SearchResponse struct {
	Data     []*model.Listing `json:"data"`
	Filters  SearchFilters    `json:"filters"`
	MaxPrice float64          `json:"maxPrice"`
}

type SearchFilters struct {
	City      string        `json:"city,omitempty"`
	MinGuests *int          `json:"minGuests,omitempty"`
	MinPrice  *float64      `json:"minPrice,omitempty"`
	MaxPrice  *float64      `json:"maxPrice,omitempty"`
	StartDate string        `json:"startDate,omitempty"`
	EndDate   string        `json:"endDate,omitempty"`
	Sort      model.SortKey `json:"sort,omitempty"`
	Active    *bool         `json:"active,omitempty"`
}

// reservationPayload keeps dates as strings so both YYYY-MM-DD and RFC 3339 are accepted.
type reservationPayload struct {
	Email     string `json:"email"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type ListingHandler struct {
	service service.ListingService
	log     *logger.Logger
}

func NewListingHandler(service service.ListingService, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log,
	}
}

func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query, filters, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	result, err := h.service.List(r.Context(), query)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, SearchResponse{
		Data:     publicListings(result.Listings),
		Filters:  filters,
		MaxPrice: result.MaxPrice,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Search", "operation", "WriteJSON", "error", err)
	}
}

func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listing, err := h.service.GetPublicByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, publicListing(listing)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ListingHandler) Reserve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var payload reservationPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	req, err := payload.toRequest()
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	reservation, err := h.service.Reserve(r.Context(), ps.ByName("id"), req)
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation, "Reservation confirmed"); err != nil {
		h.log.Error("failed to write created response", "handler", "Reserve", "operation", "WriteCreated", "error", err)
	}
}

func (h *ListingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ListingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/listings", h.Search)
	router.GET("/api/v1/listings/id/:id", h.GetByID)
	router.POST("/api/v1/listings/id/:id/reservations", h.Reserve)
}

// publicListing keeps the booked ranges visible for the calendar but drops who
// booked them.
func publicListing(listing *model.Listing) *model.Listing {
	c := listing.Clone()
	for i := range c.Reservations {
		c.Reservations[i].Email = ""
	}
	return c
}

func publicListings(listings []*model.Listing) []*model.Listing {
	out := make([]*model.Listing, len(listings))
	for i, l := range listings {
		out[i] = publicListing(l)
	}
	return out
}

func (p reservationPayload) toRequest() (*model.ReservationRequest, error) {
	req := &model.ReservationRequest{Email: p.Email}

	if p.StartDate != "" {
		start, err := httputil.ParseDate(p.StartDate)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid startDate, expected YYYY-MM-DD: " + p.StartDate)
		}
		req.StartDate = &start
	}
	if p.EndDate != "" {
		end, err := httputil.ParseDate(p.EndDate)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid endDate, expected YYYY-MM-DD: " + p.EndDate)
		}
		req.EndDate = &end
	}
	return req, nil
}

// parseSearchQuery turns the query string into typed criteria. The date filter
// only applies when both dates are given.
func parseSearchQuery(values url.Values) (model.SearchQuery, SearchFilters, error) {
	var query model.SearchQuery
	var filters SearchFilters
	var err error

	query.Filter.City = httputil.QueryString(values, "city")
	if query.Filter.MinGuests, err = httputil.QueryInt(values, "minGuests"); err != nil {
		return query, filters, err
	}
	if query.Filter.MinPrice, err = httputil.QueryFloat(values, "minPrice"); err != nil {
		return query, filters, err
	}
	if query.Filter.MaxPrice, err = httputil.QueryFloat(values, "maxPrice"); err != nil {
		return query, filters, err
	}

	start, err := httputil.QueryDate(values, "startDate")
	if err != nil {
		return query, filters, err
	}
	end, err := httputil.QueryDate(values, "endDate")
	if err != nil {
		return query, filters, err
	}
	query.Range = model.NewDateRange(start, end)
	query.Sort = model.SortKey(httputil.QueryString(values, "sort"))

	filters = SearchFilters{
		City:      query.Filter.City,
		MinGuests: query.Filter.MinGuests,
		MinPrice:  query.Filter.MinPrice,
		MaxPrice:  query.Filter.MaxPrice,
		Sort:      query.Sort,
	}
	if start != nil {
		filters.StartDate = start.Format(httputil.DateLayout)
	}
	if end != nil {
		filters.EndDate = end.Format(httputil.DateLayout)
	}
	return query, filters, nil
}
