// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpapi exposes a read-only chi-routed surface over a session:
// branch listings, node history, checkpoint metadata and comparison
// results, for dashboards and debugging tools. It never mutates the DAG —
// every write path belongs to the framework adapter instead.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rohithputha/agentgraph/internal/obslog"
	"github.com/rohithputha/agentgraph/observability"
	"github.com/rohithputha/agentgraph/session"
)

// NewRouter builds the read-only inspection surface over sess.
func NewRouter(sess *session.Session, obs *observability.Tracer) http.Handler {
	if obs == nil {
		obs = observability.Noop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(tracingMiddleware(obs))

	r.Route("/owners/{userID}/{sessionID}", func(r chi.Router) {
		r.Get("/branches", listBranches(sess))
		r.Get("/branches/{branchID}/nodes", listBranchNodes(sess))
	})
	r.Get("/nodes/{nodeID}/history", getHistory(sess))
	r.Get("/checkpoints/{hash}", peekCheckpoint(sess))
	r.Get("/comparisons/{comparisonID}", getComparison(sess))
	r.Get("/healthz", healthz)
	return r
}

func tracingMiddleware(obs *observability.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := obs.StartSpan(r.Context(), "httpapi.request",
				observability.Attr("http.method", r.Method),
				observability.Attr("http.path", r.URL.Path),
			)
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func listBranches(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		sessionID := chi.URLParam(r, "sessionID")
		branches, err := sess.ListBranches(r.Context(), userID, sessionID)
		writeJSON(w, branches, err)
	}
}

func listBranchNodes(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := strconv.ParseInt(chi.URLParam(r, "branchID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid branch id", http.StatusBadRequest)
			return
		}
		nodes, err := sess.GetBranchNodes(r.Context(), branchID)
		writeJSON(w, nodes, err)
	}
}

func getHistory(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodeID, err := strconv.ParseInt(chi.URLParam(r, "nodeID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid node id", http.StatusBadRequest)
			return
		}
		history, err := sess.GetHistory(r.Context(), nodeID)
		writeJSON(w, history, err)
	}
}

func peekCheckpoint(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := sess.Peek(r.Context(), chi.URLParam(r, "hash"))
		writeJSON(w, files, err)
	}
}

func getComparison(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := sess.GetComparison(r.Context(), chi.URLParam(r, "comparisonID"))
		writeJSON(w, result, err)
	}
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}, nil)
}

func writeJSON(w http.ResponseWriter, v any, err error) {
	if err != nil {
		obslog.Default().Error("httpapi: handler failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		obslog.Default().Error("httpapi: encode response failed", "error", encErr)
	}
}
