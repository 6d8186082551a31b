package webexcalling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
	"github.com/jeokrohn/wxc-nanp/internal/domain/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		BaseURL:       server.URL,
		Token:         "test-token",
		RateLimitRPS:  1000,
		RetryInterval: time.Millisecond,
		PageSize:      2,
	}, nil)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClient_List_PaginatesAndFiltersScope(t *testing.T) {
	var starts []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/telephony/config/callRouting/translationPatterns", r.URL.Path)
		assert.Equal(t, "loc-1", r.URL.Query().Get("limitToLocationId"))
		starts = append(starts, r.URL.Query().Get("start"))

		switch r.URL.Query().Get("start") {
		case "0":
			writeJSON(t, w, listPatternsResponse{TranslationPatterns: []patternRecord{
				{ID: "id-1", Name: "TP-816-HNPAL-01", MatchingPattern: "+1816200(XXXX)",
					ReplacementPattern: "90200$1", Level: levelLocation, LocationID: "loc-1"},
				{ID: "id-2", Name: "TP-816-HNPAT-01", MatchingPattern: "+1816900(XXXX)",
					ReplacementPattern: "901816900$1", Level: levelLocation, LocationID: "loc-1"},
			}})
		default:
			writeJSON(t, w, listPatternsResponse{TranslationPatterns: []patternRecord{
				{ID: "id-3", Name: "Other location", Level: levelLocation, LocationID: "loc-2"},
			}})
		}
	})

	client := newTestClient(t, handler)
	patterns, err := client.List(context.Background(), dialplan.LocationScope("loc-1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "2"}, starts)
	require.Len(t, patterns, 2)
	assert.Equal(t, "id-1", patterns[0].ID)
	assert.Equal(t, "TP-816-HNPAL-01", patterns[0].Name)
	assert.Equal(t, "+1816200(XXXX)", patterns[0].MatchPattern)
	assert.Equal(t, "90200$1", patterns[0].ReplacementPattern)
	assert.Equal(t, dialplan.LocationScope("loc-1"), patterns[0].Scope)
}

func TestClient_List_OrganizationScopeExcludesLocationPatterns(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("limitToLocationId"))
		if r.URL.Query().Get("start") != "0" {
			writeJSON(t, w, listPatternsResponse{})
			return
		}
		writeJSON(t, w, listPatternsResponse{TranslationPatterns: []patternRecord{
			{ID: "id-1", Name: "TP-816-HNPAL-01", Level: levelOrganization},
			{ID: "id-2", Name: "TP-816-HNPAL-01", Level: levelLocation, LocationID: "loc-1"},
		}})
	})

	client := newTestClient(t, handler)
	patterns, err := client.List(context.Background(), dialplan.OrganizationScope())
	require.NoError(t, err)

	require.Len(t, patterns, 1)
	assert.Equal(t, "id-1", patterns[0].ID)
	assert.Equal(t, dialplan.OrganizationScope(), patterns[0].Scope)
}

func TestClient_Create(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload patternPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, patternPayload{
			Name:               "TP-816-HNPAL-01",
			MatchingPattern:    "+1816200(XXXX)",
			ReplacementPattern: "90200$1",
			Level:              levelLocation,
			LocationID:         "loc-1",
		}, payload)

		writeJSON(t, w, patternRecord{ID: "new-id", Name: payload.Name,
			MatchingPattern: payload.MatchingPattern, ReplacementPattern: payload.ReplacementPattern,
			Level: levelLocation, LocationID: "loc-1"})
	})

	client := newTestClient(t, handler)
	created, err := client.Create(context.Background(), dialplan.LocationScope("loc-1"),
		dialplan.TranslationPattern{
			Name:               "TP-816-HNPAL-01",
			MatchPattern:       "+1816200(XXXX)",
			ReplacementPattern: "90200$1",
		})
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
	assert.Equal(t, "TP-816-HNPAL-01", created.Name)
}

func TestClient_UpdateAndDelete(t *testing.T) {
	var requests []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, fmt.Sprintf("%s %s?%s", r.Method, r.URL.Path, r.URL.RawQuery))
		w.WriteHeader(http.StatusNoContent)
	})

	client := newTestClient(t, handler)
	scope := dialplan.LocationScope("loc-1")

	err := client.Update(context.Background(), scope, "id-1", dialplan.TranslationPattern{
		Name: "TP-816-HNPAL-01", MatchPattern: "+1816200(XXXX)", ReplacementPattern: "90200$1",
	})
	require.NoError(t, err)

	err = client.Delete(context.Background(), scope, "id-1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"PUT /telephony/config/callRouting/translationPatterns/id-1?locationId=loc-1",
		"DELETE /telephony/config/callRouting/translationPatterns/id-1?locationId=loc-1",
	}, requests)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, listPatternsResponse{})
	})

	client := newTestClient(t, handler)
	_, err := client.List(context.Background(), dialplan.OrganizationScope())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "pattern name already exists", http.StatusConflict)
	})

	client := newTestClient(t, handler)
	_, err := client.Create(context.Background(), dialplan.OrganizationScope(),
		dialplan.TranslationPattern{Name: "TP-816-HNPAL-01"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 409")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ResolveLocation(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations", r.URL.Path)
		assert.Equal(t, "Kansas City", r.URL.Query().Get("name"))
		writeJSON(t, w, map[string]any{"items": []map[string]string{
			{"id": "loc-kc", "name": "Kansas City"},
			{"id": "loc-kc2", "name": "Kansas City North"},
		}})
	})

	client := newTestClient(t, handler)
	id, err := client.ResolveLocation(context.Background(), "Kansas City")
	require.NoError(t, err)
	assert.Equal(t, "loc-kc", id)
}

func TestClient_ResolveLocation_NotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"items": []map[string]string{}})
	})

	client := newTestClient(t, handler)
	_, err := client.ResolveLocation(context.Background(), "Nowhere")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}
