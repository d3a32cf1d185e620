package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: it wires routes and middleware and
// delegates everything else to the Server handlers.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The web UI is served from a different origin and authenticates with
	// the X-User-Id header, so that header must be CORS-allowed.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", UserIDHeader},
		MaxAge:         300,
	}))

	r.Use(NewIdentityMiddleware())

	// Health endpoint for infra checks; unauthenticated.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/rides", func(r chi.Router) {
		r.Get("/", s.handleListRides)
		r.Post("/", s.handleCreateRide)
		r.Get("/{id}", s.handleRideDetail)
		r.Delete("/{id}", s.handleRemoveRide)
		r.Post("/{id}/join", s.handleJoinRide)
		r.Post("/{id}/leave", s.handleLeaveRide)
		r.Post("/{id}/location-check", s.handleLocationCheck)
		r.Post("/{id}/members/{memberId}/verify", s.handleVerifyMember)
	})

	r.Route("/me", func(r chi.Router) {
		r.Get("/", s.handleGetMe)
		r.Put("/", s.handlePutMe)
		r.Get("/rides", s.handleMyRides)
	})

	r.Get("/dashapi", s.handleDashboard)

	return r
}
