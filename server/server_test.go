// Copyright 2025 OpenDesign Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OpenDesignlabs/vectra/engine"
	"github.com/OpenDesignlabs/vectra/internal/cache"
	"github.com/OpenDesignlabs/vectra/version"
)

func newTestHandler(t *testing.T, opts engine.Options) http.Handler {
	t.Helper()
	e := engine.New(opts)
	t.Cleanup(e.Close)
	return NewHandler(e)
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCompileEndpoint(t *testing.T) {
	h := newTestHandler(t, engine.Options{Cache: cache.NewMemory()})

	rec := postJSON(t, h, "/v1/compile", &CompileRequest{
		Source: `export default function Box() { return <div className="box">hi</div>; }`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp CompileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.HTML, `class="box"`) {
		t.Errorf("unexpected html: %s", resp.HTML)
	}
	if strings.Contains(resp.CleanCode, "export default") {
		t.Errorf("clean code not canonicalized: %s", resp.CleanCode)
	}
}

func TestClientVersionGate(t *testing.T) {
	h := newTestHandler(t, engine.Options{})
	body := &CompileRequest{Source: `export default () => <div />;`}

	cases := []struct {
		name   string
		client string
		status int
	}{
		{"no header", "", http.StatusOK},
		{"current version", version.Version, http.StatusOK},
		{"older minor", "v0.1.0", http.StatusOK},
		{"newer than engine", "v0.99.0", http.StatusUpgradeRequired},
		{"different major", "v1.0.0", http.StatusUpgradeRequired},
		{"not semver", "three-point-oh", http.StatusUpgradeRequired},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatalf("encode request: %v", err)
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/compile", &buf)
			req.Header.Set("Content-Type", "application/json")
			if c.client != "" {
				req.Header.Set(ClientVersionHeader, c.client)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != c.status {
				t.Fatalf("status %d, want %d: %s", rec.Code, c.status, rec.Body)
			}
			if c.status == http.StatusUpgradeRequired {
				var resp ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Kind != "IncompatibleClient" {
					t.Errorf("kind = %s", resp.Kind)
				}
			}
		})
	}

	// The gate covers API routes only; health stays open to anything.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(ClientVersionHeader, "v9.0.0")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz gated: %d", rec.Code)
	}
}

func TestCompileEndpointSecurityViolation(t *testing.T) {
	h := newTestHandler(t, engine.Options{})

	rec := postJSON(t, h, "/v1/compile", &CompileRequest{
		Source: `export default function X() { fetch("https://evil.example"); return <div/>; }`,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != "SecurityViolation" {
		t.Errorf("expected SecurityViolation, got %s (%s)", resp.Kind, resp.Error)
	}
}

func TestCompileEndpointCompileError(t *testing.T) {
	h := newTestHandler(t, engine.Options{})

	rec := postJSON(t, h, "/v1/compile", &CompileRequest{
		Source: `export default function X() { return <div; }`,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != "CompileError" {
		t.Errorf("expected CompileError, got %s (%s)", resp.Kind, resp.Error)
	}
}

func TestExportEndpoint(t *testing.T) {
	h := newTestHandler(t, engine.Options{})

	body := map[string]interface{}{
		"project": map[string]interface{}{
			"root": map[string]interface{}{"id": "root", "type": "text", "content": "hi", "name": "Root"},
		},
		"rootId": "root",
	}
	rec := postJSON(t, h, "/v1/export", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp["code"], "export default function Root()") {
		t.Errorf("unexpected export:\n%s", resp["code"])
	}
}

func TestSnapEndpoint(t *testing.T) {
	h := newTestHandler(t, engine.Options{})

	rec := postJSON(t, h, "/v1/snap", map[string]interface{}{
		"target":    map[string]interface{}{"id": "t", "x": 0, "y": 0, "w": 50, "h": 50},
		"siblings":  []map[string]interface{}{{"id": "s", "x": 103, "y": 0, "w": 100, "h": 100}},
		"deltaX":    100,
		"deltaY":    0,
		"threshold": 5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		X      float64           `json:"x"`
		Guides []json.RawMessage `json:"guides"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.X != 103 {
		t.Errorf("expected snap to 103, got %v", resp.X)
	}
	if len(resp.Guides) != 1 {
		t.Errorf("expected one guide, got %d", len(resp.Guides))
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, engine.Options{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/compile", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, engine.Options{})

	// Generate one sample so the counter shows up.
	postJSON(t, h, "/v1/compile", &CompileRequest{
		Source: `export default function Box() { return <div>hi</div>; }`,
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "vectra_compile_total") {
		t.Error("compile counter not exported")
	}
}

func TestHealEndpointWithoutFixer(t *testing.T) {
	h := newTestHandler(t, engine.Options{})

	rec := postJSON(t, h, "/v1/heal", &HealRequest{
		Owner:  "node-1",
		Source: "export default function X() { return <div/  }",
		Error:  "Unexpected token",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("heal without a fixer must fail, got %d", rec.Code)
	}
}
