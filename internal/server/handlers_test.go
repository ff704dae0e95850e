package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"docsift-backend/internal/engine"
	"docsift-backend/internal/profile"
	"docsift-backend/internal/provider"
	"docsift-backend/internal/services/health"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver := profile.NewResolver(profile.BuiltinStore{})
	eng := engine.New(resolver, engine.Defaults{MaxDocuments: 16, Concurrency: 2})
	return NewEngine(&Handler{
		Engine:   eng,
		Resolver: resolver,
		Provider: provider.StubProvider{},
		Health:   health.NewService("stub", resolver.StoreNames()),
	})
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestExtractEndpoint(t *testing.T) {
	router := setupRouter(t)

	resp := postJSON(t, router, "/api/v1/extract", map[string]any{
		"files": []any{
			map[string]any{"text": "Invoice INV-1 total 42", "name": "inv.txt"},
		},
		"schema": map[string]any{
			"global_fields": []any{
				map[string]any{"name": "invoice_id", "type": "string"},
			},
		},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		OK   bool `json:"ok"`
		Data struct {
			PerFile []struct {
				Meta struct {
					SourceName string `json:"source_name"`
					Mode       string `json:"mode"`
				} `json:"meta"`
			} `json:"per_file"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.OK {
		t.Fatalf("expected ok envelope")
	}
	if len(envelope.Data.PerFile) != 1 {
		t.Fatalf("expected one slot, got %d", len(envelope.Data.PerFile))
	}
	if envelope.Data.PerFile[0].Meta.SourceName != "inv.txt" {
		t.Fatalf("unexpected source name %q", envelope.Data.PerFile[0].Meta.SourceName)
	}
}

func TestExtractWithBuiltinProfile(t *testing.T) {
	router := setupRouter(t)

	resp := postJSON(t, router, "/api/v1/extract", map[string]any{
		"files":   []any{map[string]any{"text": "some invoice text"}},
		"profile": "invoice",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestExtractRequiresSchemaOrProfile(t *testing.T) {
	router := setupRouter(t)

	resp := postJSON(t, router, "/api/v1/extract", map[string]any{
		"files": []any{map[string]any{"text": "x"}},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestExtractUnknownProfile(t *testing.T) {
	router := setupRouter(t)

	resp := postJSON(t, router, "/api/v1/extract", map[string]any{
		"files":   []any{map[string]any{"text": "x"}},
		"profile": "does-not-exist",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		OK    bool `json:"ok"`
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.OK || envelope.Error.Type != "profile_error" {
		t.Fatalf("unexpected error envelope: %+v", envelope)
	}
}

func TestExtractRejectsEmptyFileSpec(t *testing.T) {
	router := setupRouter(t)

	resp := postJSON(t, router, "/api/v1/extract", map[string]any{
		"files": []any{
			map[string]any{"text": "ok"},
			map[string]any{"name": "only-a-name.txt"},
		},
		"schema": map[string]any{
			"global_fields": []any{map[string]any{"name": "a", "type": "string"}},
		},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		OK    bool `json:"ok"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.OK || envelope.Error.Type != "document_error" {
		t.Fatalf("unexpected error envelope: %+v", envelope)
	}
	if envelope.Error.Message != "file 1: uri or text is required" {
		t.Fatalf("expected message naming the bad entry, got %q", envelope.Error.Message)
	}
}

func TestExtractRejectsTraversalName(t *testing.T) {
	router := setupRouter(t)

	resp := postJSON(t, router, "/api/v1/extract", map[string]any{
		"files": []any{map[string]any{"text": "x", "name": "../../etc/passwd"}},
		"schema": map[string]any{
			"global_fields": []any{map[string]any{"name": "a", "type": "string"}},
		},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListProfilesEndpoint(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Profiles []string `json:"profiles"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	found := map[string]bool{}
	for _, id := range envelope.Data.Profiles {
		found[id] = true
	}
	for _, want := range []string{"describe", "extract", "invoice"} {
		if !found[want] {
			t.Fatalf("expected %q in %v", want, envelope.Data.Profiles)
		}
	}
}

func TestShowProfileEndpoint(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/invoice", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			ID        string `json:"id"`
			Mode      string `json:"mode"`
			HasSchema bool   `json:"has_schema"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != "invoice" || envelope.Data.Mode != "extract" || !envelope.Data.HasSchema {
		t.Fatalf("unexpected profile summary: %+v", envelope.Data)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		OK       bool   `json:"ok"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.OK || body.Provider != "stub" {
		t.Fatalf("unexpected health payload: %+v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("extraction_started_total")) {
		t.Fatalf("expected extraction counters in metrics output")
	}
}
