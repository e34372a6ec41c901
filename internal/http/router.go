package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/aircnc-server/internal/observability"
)

// SetupRouter builds the API. allowedOrigins feeds the CORS policy the
// browser client relies on.
func SetupRouter(h *Handlers, logger observability.Logger, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	r.Post("/jwt", h.IssueToken)
	r.Post("/create-payment-intent", RequireIdentity(h.verifier, h.CreatePaymentIntent))

	r.Get("/users", h.ListUsers)
	r.Get("/users/{email}", h.GetUser)
	r.Put("/users/{email}", h.PutUser)

	r.Get("/rooms", h.ListRooms)
	r.Post("/rooms", h.CreateRoom)
	r.Get("/room/{id}", h.GetRoom)
	// {key} is the host email on GET and the room id on PUT and DELETE.
	r.Get("/rooms/{key}", RequireIdentity(h.verifier, RequireOwner("key", h.HostRooms)))
	r.Put("/rooms/{key}", h.UpdateRoom)
	r.Delete("/rooms/{key}", h.DeleteRoom)
	r.Patch("/rooms/status/{id}", h.SetRoomStatus)

	r.Get("/bookings", h.ListBookings)
	r.Post("/bookings", h.CreateBooking)
	r.Get("/bookings/host", h.HostBookings)
	r.Delete("/bookings/{id}", h.DeleteBooking)

	r.Get("/home", h.Home)
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
