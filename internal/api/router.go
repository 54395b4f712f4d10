package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// loggingMiddleware logs request details and latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}

// corsMiddleware allows the configured UI origins.
func corsMiddleware(origins []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && slices.Contains(origins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter creates and configures the HTTP router.
func NewRouter(handler *Handler, corsOrigins []string) *mux.Router {
	r := mux.NewRouter()

	r.Use(loggingMiddleware)
	r.Use(corsMiddleware(corsOrigins))

	r.HandleFunc("/api/upload", handler.HandleUpload).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/chat", handler.HandleChat).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/summary", handler.HandleSummary).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/quiz", handler.HandleQuiz).Methods("POST", "OPTIONS")
	r.HandleFunc("/health", handler.HandleHealth).Methods("GET")

	return r
}
