package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pisos/pkg/errors"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{"calendar date", "2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"padded", "  2024-06-01 ", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339 with offset", "2024-06-01T02:00:00+02:00", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339 keeps its own day", "2024-06-15T00:30:00+02:00", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339 drops time of day", "2024-06-15T12:00:00Z", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"late evening west of utc", "2024-06-15T23:30:00-05:00", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"day first", "01/06/2024", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	query := url.Values{
		"guests": {"3"},
		"price":  {"99.5"},
		"active": {"true"},
		"bad":    {"x"},
		"from":   {"2024-06-01"},
	}

	guests, err := QueryInt(query, "guests")
	require.NoError(t, err)
	assert.Equal(t, 3, *guests)

	price, err := QueryFloat(query, "price")
	require.NoError(t, err)
	assert.Equal(t, 99.5, *price)

	active, err := QueryBool(query, "active")
	require.NoError(t, err)
	assert.True(t, *active)

	from, err := QueryDate(query, "from")
	require.NoError(t, err)
	assert.Equal(t, 2024, from.Year())

	missing, err := QueryInt(query, "missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	for _, parse := range []func() error{
		func() error { _, err := QueryInt(query, "bad"); return err },
		func() error { _, err := QueryFloat(query, "bad"); return err },
		func() error { _, err := QueryBool(query, "bad"); return err },
		func() error { _, err := QueryDate(query, "bad"); return err },
	} {
		err := parse()
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput), "got %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"email":"a@example.com"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"email":"a@example.com","extra":1}`, true},
		{"trailing object", `{"email":"a"}{"email":"b"}`, true},
		{"malformed", `{"email":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(r, &p)
			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@example.com", p.Email)
		})
	}
}

func TestWriteError(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := apperrors.DateConflict("taken", map[string]any{"conflictStart": "2024-06-01"})
		require.NoError(t, WriteError(w, err))

		assert.Equal(t, http.StatusConflict, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, apperrors.CodeDateConflict, resp.Code)
		assert.Equal(t, "taken", resp.Error)
		assert.Equal(t, "2024-06-01", resp.Details["conflictStart"])
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteError(w, errors.New("mongo: connection string leaked")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "mongo")
	})
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteCreated(w, map[string]string{"id": "1"}, "Listing created"))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"1"},"info":"Listing created"}`, w.Body.String())
}
