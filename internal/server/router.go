package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"streamer/internal/auth"
	"streamer/internal/metrics"
	"streamer/internal/webui"
)

// Handler builds the router with all middleware applied
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	if s.opts.MetricsEnabled {
		r.Use(metrics.HTTPMetricsMiddleware(metrics.HTTPRequestsTotal, metrics.HTTPRequestDuration))
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/status", s.handleStatus).Methods("GET")

	if s.opts.ViewerEnabled {
		links := make([]webui.StreamLink, 0, len(s.routes))
		for _, rt := range s.routes {
			links = append(links, webui.StreamLink{
				Title: rt.title,
				Path:  rt.path,
				Audio: rt.partType == "",
			})
		}
		r.Handle("/", webui.NewViewerHandler(links, s.opts.WebSocketEnabled)).Methods("GET")
	}

	// Stream routes, behind token auth when configured
	streams := r.NewRoute().Subrouter()
	if s.opts.JWTManager != nil {
		streams.Use(auth.Middleware(s.opts.JWTManager))
	}
	for _, rt := range s.routes {
		streams.HandleFunc(rt.path, s.streamHandler(rt)).Methods("GET")
		if s.opts.WebSocketEnabled {
			streams.HandleFunc(rt.path+"/ws", s.webSocketHandler(rt)).Methods("GET")
		}
	}

	return addCORS(r, s.opts.AllowedOrigins)
}

// handleHealth responds to health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "streamer"}`))
}

// handleStatus reports the running streams
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	registry := s.opts.Registry
	streams := registry.List()

	status := map[string]interface{}{
		"service":         "streamer",
		"version":         s.opts.Version,
		"uptime_seconds":  int64(time.Since(s.startedAt).Seconds()),
		"auth_enabled":    s.opts.JWTManager != nil,
		"stream_count":    len(streams),
		"streams_by_kind": registry.CountByKind(),
		"streams":         streams,
	}

	if mic, ok := s.opts.Microphone.(metrics.MicrophoneStats); ok {
		status["microphone"] = map[string]interface{}{
			"subscribers":    mic.Subscribers(),
			"chunks":         mic.Chunks(),
			"dropped_chunks": mic.Drops(),
		}
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("Failed to encode status response")
	}
}

// addCORS lets browser viewers on other origins embed the streams
func addCORS(handler http.Handler, allowedOrigins []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && originAllowed(allowedOrigins, origin) {
			if originAllowed(allowedOrigins, "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler.ServeHTTP(w, r)
	})
}
