// Package api provides the HTTP API for observing and steering a city.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/mini-city/internal/advisor"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/footprint"
	"github.com/talgya/mini-city/internal/persistence"
)

// Server serves the city over HTTP.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB // optional; history and snapshot endpoints need it
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	Hub *Hub
}

// NewServer wires a server to an engine.
func NewServer(eng *engine.Engine, db *persistence.DB, port int, adminKey string) *Server {
	return &Server{Eng: eng, DB: db, Port: port, AdminKey: adminKey, Hub: NewHub()}
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	toolLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/tile/", s.handleTile)
	mux.HandleFunc("/api/v1/advisor", s.handleAdvisor)
	mux.HandleFunc("/api/v1/stream", s.Hub.ServeWS(s.Eng))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/tool", s.adminOnly(RateLimitMiddleware(toolLimiter, s.handleTool)))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no CITYSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Eng.State()
	writeJSON(w, map[string]any{
		"id":          st.ID,
		"name":        st.Name,
		"grid_size":   st.GridSize,
		"date":        st.Calendar.String(),
		"calendar":    st.Calendar,
		"speed":       s.Eng.Speed(),
		"running":     s.Eng.Running(),
		"population":  st.Stats.Population,
		"jobs":        st.Stats.Jobs,
		"money":       st.Stats.Money,
		"tax_rate":    st.TaxRate,
		"demand":      st.Stats.Demand,
		"disasters":   st.DisastersEnabled,
		"subscribers": s.Hub.Count(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.Eng.State()
	writeJSON(w, map[string]any{
		"stats":              st.Stats,
		"census":             st.Census,
		"budget":             st.Budget,
		"effective_tax_rate": st.EffectiveTaxRate,
	})
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "no database", http.StatusServiceUnavailable)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			http.Error(w, "limit must be 1-1000", http.StatusBadRequest)
			return
		}
		limit = n
	}
	rows, err := s.DB.StatsHistory(s.Eng.State().ID, limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

// handleMap returns the full grid and water body metadata.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	st := s.Eng.State()
	writeJSON(w, map[string]any{
		"size":         st.GridSize,
		"grid":         st.Grid,
		"water_bodies": st.WaterBodies,
	})
}

// handleTile serves GET /api/v1/tile/:x/:y with the tile, its coverage and
// the origin of the building standing on it.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/tile/"), "/")
	if len(parts) != 2 {
		http.Error(w, "usage: /api/v1/tile/{x}/{y}", http.StatusBadRequest)
		return
	}
	x, errX := strconv.Atoi(parts[0])
	y, errY := strconv.Atoi(parts[1])
	st := s.Eng.State()
	if errX != nil || errY != nil || !st.Grid.InBounds(x, y) {
		http.Error(w, "tile out of range", http.StatusNotFound)
		return
	}

	t := st.Grid.At(x, y)
	resp := map[string]any{
		"tile": t,
		"coverage": map[string]any{
			"power":     st.Services.Powered(x, y),
			"water":     st.Services.Watered(x, y),
			"police":    st.Services.Police[y*st.GridSize+x],
			"fire":      st.Services.Fire[y*st.GridSize+x],
			"health":    st.Services.Health[y*st.GridSize+x],
			"education": st.Services.Education[y*st.GridSize+x],
		},
	}
	if t.Building.Type == city.TypeFactorySmall {
		resp["farm"] = city.IsFarm(x, y)
	}
	if ox, oy, ok := footprint.FindOrigin(st.Grid, x, y); ok {
		resp["origin"] = map[string]int{"x": ox, "y": oy}
		resp["footprint"] = footprint.Of(st.Grid, ox, oy)
	}
	writeJSON(w, resp)
}

func (s *Server) handleAdvisor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, advisor.Triage(s.Eng.State()))
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// handleTool applies a player tool between ticks. A tool that is legal but
// changes nothing reports applied=false.
func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var tool engine.Tool
	if err := json.NewDecoder(r.Body).Decode(&tool); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var toolErr error
	applied := s.Eng.Apply(func(st *engine.State) *engine.State {
		next, err := engine.ApplyTool(st, tool, s.Eng.Config())
		toolErr = err
		return next
	})
	if toolErr != nil {
		http.Error(w, toolErr.Error(), http.StatusBadRequest)
		return
	}
	if applied {
		slog.Info("tool applied", "tool", tool.Name, "x", tool.X, "y", tool.Y, "client", clientIP(r))
		s.Hub.Publish(s.Eng.State(), nil)
	}
	writeJSON(w, map[string]any{"applied": applied, "money": s.Eng.State().Stats.Money})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "no database", http.StatusServiceUnavailable)
		return
	}
	st := s.Eng.State()
	if err := s.DB.SaveSnapshot(st); err != nil {
		slog.Error("manual snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved": true, "tick": st.Calendar.TotalTicks})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Debug("write response failed", "error", err)
	}
}
