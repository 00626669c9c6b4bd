package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/household/internal/auth"
	"github.com/MrJamesThe3rd/household/internal/http/export"
	"github.com/MrJamesThe3rd/household/internal/http/importcsv"
	authMiddleware "github.com/MrJamesThe3rd/household/internal/http/middleware"
	"github.com/MrJamesThe3rd/household/internal/http/payment"
)

func New(
	paymentsV1 *payment.Handler,
	importV1 *importcsv.Handler,
	exportV1 *export.Handler,
	jwtService *auth.JWTService,
	allowedOrigins []string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth(jwtService))

		r.Route("/payments", func(r chi.Router) {
			r.Route("/import", importV1.Routes)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				paymentsV1.Routes(r)
			})
		})

		r.Route("/history", func(r chi.Router) {
			r.Route("/export", exportV1.Routes)
			r.Group(paymentsV1.HistoryRoutes)
		})
	})

	return router
}
