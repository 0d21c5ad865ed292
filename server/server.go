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

// Package server exposes the compile pipeline and the document operations
// over HTTP for the editor frontend.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OpenDesignlabs/vectra/engine"
	"github.com/OpenDesignlabs/vectra/internal/log"
	"github.com/OpenDesignlabs/vectra/layout"
	"github.com/OpenDesignlabs/vectra/project"
	"github.com/OpenDesignlabs/vectra/version"
)

// ClientVersionHeader carries the editor frontend's build version. Requests
// without it are accepted; a present but incompatible version is rejected.
const ClientVersionHeader = "X-Vectra-Client"

// Server routes editor requests into the engine and the document model.
type Server struct {
	engine  *engine.Engine
	metrics *metrics
}

// NewHandler builds the HTTP handler for an engine.
func NewHandler(e *engine.Engine) http.Handler {
	reg := prometheus.NewRegistry()
	s := &Server{engine: e, metrics: newMetrics(reg)}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Use(requireCompatibleClient)
		r.Post("/compile", s.Compile)
		r.Post("/heal", s.Heal)
		r.Post("/export", s.Export)
		r.Post("/snap", s.Snap)
		r.Post("/tree/delete", s.TreeDelete)
		r.Post("/tree/instantiate", s.TreeInstantiate)
	})
	return enableCORS(r)
}

// requireCompatibleClient enforces the semver gate on the API routes: an
// editor announcing a version outside the engine's compatibility window gets
// 426 with the expected version rather than a confusing downstream failure.
func requireCompatibleClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get(ClientVersionHeader); v != "" && !version.Compatible(v) {
			writeJSON(w, http.StatusUpgradeRequired, &ErrorResponse{
				Error: "client " + v + " is not compatible with engine " + version.Version,
				Kind:  "IncompatibleClient",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ClientVersionHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CompileRequest carries one component source.
type CompileRequest struct {
	Source string `json:"source"`
}

// CompileResponse is the rendered result of a successful compile.
type CompileResponse struct {
	HTML      string `json:"html"`
	CleanCode string `json:"cleanCode"`
}

// ErrorResponse classifies a failed request for the frontend: Kind matches
// the engine's error taxonomy so the client can decide about healing.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Compile handles POST /v1/compile.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	var body CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	comp, clean, err := s.engine.CompileOnce(r.Context(), body.Source)
	s.metrics.compileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := errorKind(err)
		s.metrics.compiles.WithLabelValues(kind).Inc()
		writeJSON(w, http.StatusUnprocessableEntity, &ErrorResponse{Error: err.Error(), Kind: kind})
		return
	}
	s.metrics.compiles.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, &CompileResponse{HTML: comp.Root.HTML(), CleanCode: clean})
}

// HealRequest asks for one user-initiated repair of a broken fragment.
type HealRequest struct {
	Owner  string `json:"owner"`
	Source string `json:"source"`
	Error  string `json:"error"`
}

// HealResponse carries the repaired source and its rendered result.
type HealResponse struct {
	FixedSource string `json:"fixedSource"`
	HTML        string `json:"html"`
	CleanCode   string `json:"cleanCode"`
}

// Heal handles POST /v1/heal: reset the owner's budget, run one fix, then
// compile the fixed source synchronously.
func (s *Server) Heal(w http.ResponseWriter, r *http.Request) {
	var body HealRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.engine.ResetHeal(body.Owner)
	fixed, err := s.engine.Healer().Heal(r.Context(), body.Owner, body.Source, body.Error)
	if err != nil {
		s.metrics.heals.WithLabelValues("failed").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, &ErrorResponse{Error: err.Error(), Kind: errorKind(err)})
		return
	}
	comp, clean, err := s.engine.CompileOnce(r.Context(), fixed)
	if err != nil {
		s.metrics.heals.WithLabelValues("still_broken").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, &ErrorResponse{Error: err.Error(), Kind: errorKind(err)})
		return
	}
	s.metrics.heals.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, &HealResponse{FixedSource: fixed, HTML: comp.Root.HTML(), CleanCode: clean})
}

// ExportRequest carries a document and the subtree to export.
type ExportRequest struct {
	Project project.Project `json:"project"`
	RootID  string          `json:"rootId"`
}

// Export handles POST /v1/export.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	var body ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	code := project.GenerateReactCode(body.Project, body.RootID)
	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

// SnapRequest is a drag step to resolve against sibling geometry.
type SnapRequest struct {
	Target    layout.Rect   `json:"target"`
	Siblings  []layout.Rect `json:"siblings"`
	DeltaX    float64       `json:"deltaX"`
	DeltaY    float64       `json:"deltaY"`
	Threshold float64       `json:"threshold"`
}

// Snap handles POST /v1/snap.
func (s *Server) Snap(w http.ResponseWriter, r *http.Request) {
	var body SnapRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	res := layout.CalculateSnapping(body.Target, body.Siblings, body.DeltaX, body.DeltaY, body.Threshold)
	writeJSON(w, http.StatusOK, &res)
}

// TreeDeleteRequest names a node to remove with its subtree.
type TreeDeleteRequest struct {
	Project project.Project `json:"project"`
	NodeID  string          `json:"nodeId"`
}

// TreeDelete handles POST /v1/tree/delete and returns the updated document.
func (s *Server) TreeDelete(w http.ResponseWriter, r *http.Request) {
	var body TreeDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	removed := project.DeleteNode(body.Project, body.NodeID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project": body.Project,
		"removed": removed,
	})
}

// TreeInstantiateRequest names a template subtree to copy with fresh ids.
type TreeInstantiateRequest struct {
	Template project.Project `json:"template"`
	RootID   string          `json:"rootId"`
}

// TreeInstantiate handles POST /v1/tree/instantiate.
func (s *Server) TreeInstantiate(w http.ResponseWriter, r *http.Request) {
	var body TreeInstantiateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, project.InstantiateTemplate(body.Template, body.RootID))
}

func errorKind(err error) string {
	switch {
	case engine.IsSecurityViolation(err):
		return "SecurityViolation"
	case engine.IsCompileError(err):
		return "CompileError"
	case engine.IsRuntimeError(err):
		return "RuntimeError"
	case engine.IsHealExhausted(err):
		return "HealExhausted"
	default:
		return "Internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response: %v", err)
	}
}
