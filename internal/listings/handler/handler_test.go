package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pisos/internal/listings/service"
	apperrors "pisos/pkg/errors"
	"pisos/pkg/logger"
	"pisos/pkg/model"
)

type mockListingService struct {
	listFunc          func(ctx context.Context, query model.SearchQuery) (*service.SearchResult, error)
	getByIDFunc       func(ctx context.Context, id string) (*model.Listing, error)
	getPublicByIDFunc func(ctx context.Context, id string) (*model.Listing, error)
	createFunc        func(ctx context.Context, input *model.ListingInput) (*service.WriteResult, error)
	updateFunc        func(ctx context.Context, id string, input *model.ListingInput) (*service.WriteResult, error)
	deactivateFunc    func(ctx context.Context, id string) (*service.WriteResult, error)
	reactivateFunc    func(ctx context.Context, id string) (*service.WriteResult, error)
	reserveFunc       func(ctx context.Context, id string, req *model.ReservationRequest) (*model.Reservation, error)
}

func (m *mockListingService) Search(ctx context.Context, query model.SearchQuery) ([]*model.Listing, error) {
	result, err := m.List(ctx, query)
	if err != nil {
		return nil, err
	}
	return result.Listings, nil
}

func (m *mockListingService) List(ctx context.Context, query model.SearchQuery) (*service.SearchResult, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, query)
	}
	return &service.SearchResult{Listings: []*model.Listing{}}, nil
}

func (m *mockListingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, apperrors.NotFoundWithID("Listing", id)
}

func (m *mockListingService) GetPublicByID(ctx context.Context, id string) (*model.Listing, error) {
	if m.getPublicByIDFunc != nil {
		return m.getPublicByIDFunc(ctx, id)
	}
	return nil, apperrors.NotFoundWithID("Listing", id)
}

func (m *mockListingService) Create(ctx context.Context, input *model.ListingInput) (*service.WriteResult, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}
	return nil, nil
}

func (m *mockListingService) Update(ctx context.Context, id string, input *model.ListingInput) (*service.WriteResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, input)
	}
	return nil, nil
}

func (m *mockListingService) Deactivate(ctx context.Context, id string) (*service.WriteResult, error) {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockListingService) Reactivate(ctx context.Context, id string) (*service.WriteResult, error) {
	if m.reactivateFunc != nil {
		return m.reactivateFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockListingService) Reserve(ctx context.Context, id string, req *model.ReservationRequest) (*model.Reservation, error) {
	if m.reserveFunc != nil {
		return m.reserveFunc(ctx, id, req)
	}
	return nil, nil
}

func newRouter(svc service.ListingService) *httprouter.Router {
	router := httprouter.New()
	NewListingHandler(svc, logger.Discard()).RegisterRoutes(router)
	NewAdminHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSearch_ParsesQuery(t *testing.T) {
	var received model.SearchQuery
	svc := &mockListingService{
		listFunc: func(ctx context.Context, query model.SearchQuery) (*service.SearchResult, error) {
			received = query
			return &service.SearchResult{
				Listings: []*model.Listing{{ID: "a"}, {ID: "b"}},
				MaxPrice: 180,
			}, nil
		},
	}

	w := serve(newRouter(svc), http.MethodGet,
		"/api/v1/listings?city=Madrid&minGuests=2&minPrice=50&maxPrice=150.5&startDate=2024-06-01&endDate=2024-06-05&sort=price_asc", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Madrid", received.Filter.City)
	require.NotNil(t, received.Filter.MinGuests)
	assert.Equal(t, 2, *received.Filter.MinGuests)
	require.NotNil(t, received.Filter.MinPrice)
	assert.Equal(t, 50.0, *received.Filter.MinPrice)
	require.NotNil(t, received.Filter.MaxPrice)
	assert.Equal(t, 150.5, *received.Filter.MaxPrice)
	assert.False(t, received.Filter.IncludeInactive)
	require.NotNil(t, received.Range)
	assert.Equal(t, day("2024-06-01"), received.Range.Start)
	assert.Equal(t, day("2024-06-05"), received.Range.End)
	assert.Equal(t, model.SortPriceAsc, received.Sort)

	var resp struct {
		Data     []model.Listing `json:"data"`
		Filters  SearchFilters   `json:"filters"`
		MaxPrice float64         `json:"maxPrice"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 180.0, resp.MaxPrice)
	assert.Equal(t, "Madrid", resp.Filters.City)
	assert.Equal(t, "2024-06-01", resp.Filters.StartDate)
	assert.Equal(t, "2024-06-05", resp.Filters.EndDate)
}

func TestSearch_SingleDateIsIgnored(t *testing.T) {
	var received model.SearchQuery
	svc := &mockListingService{
		listFunc: func(ctx context.Context, query model.SearchQuery) (*service.SearchResult, error) {
			received = query
			return &service.SearchResult{}, nil
		},
	}

	w := serve(newRouter(svc), http.MethodGet, "/api/v1/listings?startDate=2024-06-01", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, received.Range)
}

func TestSearch_InvalidQueryParameters(t *testing.T) {
	called := false
	svc := &mockListingService{
		listFunc: func(ctx context.Context, query model.SearchQuery) (*service.SearchResult, error) {
			called = true
			return &service.SearchResult{}, nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name  string
		query string
	}{
		{"alphabetic minGuests", "?minGuests=abc"},
		{"alphabetic minPrice", "?minPrice=cheap"},
		{"alphabetic maxPrice", "?maxPrice=lots"},
		{"malformed startDate", "?startDate=01/06/2024&endDate=2024-06-05"},
		{"malformed endDate", "?startDate=2024-06-01&endDate=tomorrow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			w := serve(router, http.MethodGet, "/api/v1/listings"+tt.query, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, called, "service must not be called on bad input")

			var resp map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, apperrors.CodeInvalidInput, resp["code"])
		})
	}
}

func TestSearch_ServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid range", apperrors.InvalidRange("start after end"), http.StatusBadRequest, apperrors.CodeInvalidRange},
		{"store down", apperrors.PersistenceFailure("search listings", context.DeadlineExceeded), http.StatusServiceUnavailable, apperrors.CodePersistenceFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockListingService{
				listFunc: func(ctx context.Context, query model.SearchQuery) (*service.SearchResult, error) {
					return nil, tt.err
				},
			}

			w := serve(newRouter(svc), http.MethodGet, "/api/v1/listings", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp["code"])
		})
	}
}

func TestGetByID_HidesReservationEmails(t *testing.T) {
	listing := &model.Listing{
		ID:       "65f0c0ffee",
		IsActive: true,
		Reservations: []model.Reservation{
			{Email: "guest@example.com", StartDate: day("2024-06-01"), EndDate: day("2024-06-05")},
		},
	}
	svc := &mockListingService{
		getPublicByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			assert.Equal(t, "65f0c0ffee", id)
			return listing, nil
		},
	}

	w := serve(newRouter(svc), http.MethodGet, "/api/v1/listings/id/65f0c0ffee", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "guest@example.com")
	assert.NotContains(t, w.Body.String(), `"email"`)
	assert.Equal(t, "guest@example.com", listing.Reservations[0].Email, "stored listing must stay untouched")

	var resp struct {
		Data model.Listing `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Data.Reservations, 1)
	assert.Equal(t, day("2024-06-01"), resp.Data.Reservations[0].StartDate)
}

func TestGetByID_NotFound(t *testing.T) {
	w := serve(newRouter(&mockListingService{}), http.MethodGet, "/api/v1/listings/id/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReserve(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		serviceErr  error
		wantStatus  int
		wantCode    string
		wantService bool
	}{
		{
			name:        "created",
			body:        `{"email":"Guest@Example.com","startDate":"2024-06-01","endDate":"2024-06-05"}`,
			wantStatus:  http.StatusCreated,
			wantService: true,
		},
		{
			name:        "rfc3339 dates",
			body:        `{"email":"guest@example.com","startDate":"2024-06-01T00:00:00Z","endDate":"2024-06-05T00:00:00Z"}`,
			wantStatus:  http.StatusCreated,
			wantService: true,
		},
		{
			name:        "timestamps keep only the calendar day",
			body:        `{"email":"guest@example.com","startDate":"2024-06-01T18:45:00Z","endDate":"2024-06-05T09:00:00+02:00"}`,
			wantStatus:  http.StatusCreated,
			wantService: true,
		},
		{
			name:        "missing dates reach the service",
			body:        `{"email":"guest@example.com"}`,
			serviceErr:  apperrors.InvalidRange("dates required"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    apperrors.CodeInvalidRange,
			wantService: true,
		},
		{
			name:        "date conflict",
			body:        `{"email":"guest@example.com","startDate":"2024-06-01","endDate":"2024-06-05"}`,
			serviceErr:  apperrors.DateConflict("taken", nil),
			wantStatus:  http.StatusConflict,
			wantCode:    apperrors.CodeDateConflict,
			wantService: true,
		},
		{
			name:       "malformed date",
			body:       `{"email":"guest@example.com","startDate":"June 1st","endDate":"2024-06-05"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
		{
			name:       "unknown field",
			body:       `{"email":"guest@example.com","nights":4}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received *model.ReservationRequest
			svc := &mockListingService{
				reserveFunc: func(ctx context.Context, id string, req *model.ReservationRequest) (*model.Reservation, error) {
					assert.Equal(t, "abc", id)
					received = req
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &model.Reservation{Email: req.Email, StartDate: *req.StartDate, EndDate: *req.EndDate}, nil
				},
			}

			w := serve(newRouter(svc), http.MethodPost, "/api/v1/listings/id/abc/reservations", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantService, received != nil)
			if tt.wantCode != "" {
				var resp map[string]any
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.wantCode, resp["code"])
			}
			if tt.wantStatus == http.StatusCreated {
				require.NotNil(t, received.StartDate)
				assert.Equal(t, day("2024-06-01"), *received.StartDate)
				assert.Equal(t, day("2024-06-05"), *received.EndDate)
			}
		})
	}
}

func TestAdminSearch_ActiveFilter(t *testing.T) {
	tests := []struct {
		name            string
		query           string
		wantStatus      int
		includeInactive bool
	}{
		{"default includes inactive", "", http.StatusOK, true},
		{"active true", "?active=true", http.StatusOK, false},
		{"active false", "?active=false", http.StatusOK, true},
		{"bad active", "?active=maybe", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received model.SearchQuery
			svc := &mockListingService{
				listFunc: func(ctx context.Context, query model.SearchQuery) (*service.SearchResult, error) {
					received = query
					return &service.SearchResult{}, nil
				},
			}

			w := serve(newRouter(svc), http.MethodGet, AdminPrefix+"/listings"+tt.query, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.includeInactive, received.Filter.IncludeInactive)
		})
	}
}

func TestAdminGetByID_KeepsReservationEmails(t *testing.T) {
	svc := &mockListingService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			return &model.Listing{ID: id, Reservations: []model.Reservation{{Email: "guest@example.com"}}}, nil
		},
	}

	w := serve(newRouter(svc), http.MethodGet, AdminPrefix+"/listings/id/abc", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "guest@example.com")
}

func TestAdminCreate(t *testing.T) {
	var received *model.ListingInput
	svc := &mockListingService{
		createFunc: func(ctx context.Context, input *model.ListingInput) (*service.WriteResult, error) {
			received = input
			return &service.WriteResult{
				Listing: &model.Listing{ID: "new", ListingAttributes: input.ListingAttributes, IsActive: false},
				Info:    service.InfoListingCreated,
			}, nil
		},
	}

	body := `{"title":"Loft","description":"Bright","price":90,"maxGuests":2,"location":{"province":"Madrid","city":"Madrid"},"isActive":false}`
	w := serve(newRouter(svc), http.MethodPost, AdminPrefix+"/listings", body)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, received)
	assert.Equal(t, "Loft", received.Title)
	require.NotNil(t, received.IsActive)
	assert.False(t, *received.IsActive)

	var resp struct {
		Data model.Listing `json:"data"`
		Info string        `json:"info"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "new", resp.Data.ID)
	assert.Equal(t, service.InfoListingCreated, resp.Info)
}

func TestAdminCreate_ValidationError(t *testing.T) {
	svc := &mockListingService{
		createFunc: func(ctx context.Context, input *model.ListingInput) (*service.WriteResult, error) {
			return nil, apperrors.Validation("Listing validation failed", map[string]any{
				"fields": map[string]string{"title": "title is required"},
			})
		},
	}

	w := serve(newRouter(svc), http.MethodPost, AdminPrefix+"/listings", `{"description":"no title"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, apperrors.CodeValidation, resp.Code)
	assert.Contains(t, resp.Details, "fields")
}

func TestAdminWrites_ReturnInfo(t *testing.T) {
	result := func(info string) *service.WriteResult {
		return &service.WriteResult{Listing: &model.Listing{ID: "abc"}, Info: info}
	}
	svc := &mockListingService{
		updateFunc: func(ctx context.Context, id string, input *model.ListingInput) (*service.WriteResult, error) {
			return result(service.InfoListingUpdated), nil
		},
		deactivateFunc: func(ctx context.Context, id string) (*service.WriteResult, error) {
			return result(service.InfoListingDeactivated), nil
		},
		reactivateFunc: func(ctx context.Context, id string) (*service.WriteResult, error) {
			return result(service.InfoListingReactivated), nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantInfo string
	}{
		{"update", http.MethodPut, AdminPrefix + "/listings/id/abc", `{"title":"Loft"}`, service.InfoListingUpdated},
		{"deactivate", http.MethodDelete, AdminPrefix + "/listings/id/abc", "", service.InfoListingDeactivated},
		{"reactivate", http.MethodPost, AdminPrefix + "/listings/id/abc/activate", "", service.InfoListingReactivated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.method, tt.path, tt.body)

			require.Equal(t, http.StatusOK, w.Code)
			var resp struct {
				Info string `json:"info"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantInfo, resp.Info)
		})
	}
}

func TestAdminUpdate_Conflict(t *testing.T) {
	svc := &mockListingService{
		updateFunc: func(ctx context.Context, id string, input *model.ListingInput) (*service.WriteResult, error) {
			return nil, apperrors.Conflict("modified concurrently")
		},
	}

	w := serve(newRouter(svc), http.MethodPut, AdminPrefix+"/listings/id/abc", `{"title":"Loft"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHealth(t *testing.T) {
	router := httprouter.New()
	NewHealthHandler(nil, nil, logger.Discard()).RegisterRoutes(router)

	w := serve(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
