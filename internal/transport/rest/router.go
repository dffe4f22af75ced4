package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/KinzixInfotech/edutemp-sub018/internal/auth"
	"github.com/KinzixInfotech/edutemp-sub018/internal/payment"
	"github.com/KinzixInfotech/edutemp-sub018/internal/portal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/session"
	"github.com/KinzixInfotech/edutemp-sub018/internal/settings"
	"github.com/KinzixInfotech/edutemp-sub018/internal/transport/middleware"
	"github.com/KinzixInfotech/edutemp-sub018/internal/transport/swagger"
)

type Handlers struct {
	Auth     *auth.Handler
	Session  *session.Handler
	Portal   *portal.Handler
	Payment  *payment.Handler
	Callback *payment.CallbackHandler
	Settings *settings.Handler

	// DevToolsEnabled mounts the callback simulator. Never enable it in
	// production: it mints signed callbacks for pending orders.
	DevToolsEnabled bool
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, redisClient *redis.Client, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, redisClient)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway callbacks: unauthenticated, verified by checksum
		if h.Callback != nil {
			r.Post("/payment/callback/{provider}", h.Callback.HandleCallback)
			if h.DevToolsEnabled {
				r.Post("/payment/dev/simulate", h.Callback.SimulateCallback)
			}
		}

		// Payer portal routes
		if h.Session != nil {
			r.Route("/portal", func(sr chi.Router) {
				sr.Post("/login", h.Session.Login)
				sr.Delete("/session", h.Session.Logout)

				sr.Group(func(pr chi.Router) {
					pr.Use(h.Session.RequireSession)

					pr.Get("/session", h.Session.GetSession)

					if h.Portal != nil {
						pr.Get("/fees", h.Portal.ListFees)
						pr.Get("/fees/{feeID}/payments", h.Portal.FeePayments)
					}
					if h.Payment != nil {
						pr.Post("/payments", h.Payment.InitiatePayment)
						pr.Get("/payments/{orderID}", h.Payment.GetPayment)
					}
				})
			})
		}

		// Tenant-admin auth routes
		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})

			// Protected admin routes
			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)

				if h.Settings != nil {
					pr.Route("/schools/payment-settings", func(ar chi.Router) {
						ar.Get("/", h.Settings.GetSettings)
						ar.Put("/", h.Settings.UpdateSettings)
						ar.Post("/verify", h.Settings.VerifyConfig)
					})
				}
			})
		}
	})
}
