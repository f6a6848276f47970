package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/billdesk/server/internal/auth"
	"github.com/billdesk/server/internal/http/handlers"
	"github.com/billdesk/server/internal/middleware"
	"github.com/billdesk/server/internal/repo"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	invoiceHandler *handlers.InvoiceHandler,
	jwtService *auth.JWTService,
	sessionRepo repo.SessionRepo,
	employeeRepo repo.EmployeeRepo,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/request_code", authHandler.HandleRequestCode)
		r.Post("/verify_code", authHandler.HandleVerifyCode)
	})

	// Protected routes (require a live session)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtService, sessionRepo, employeeRepo))

		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/me", authHandler.HandleMe)

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", invoiceHandler.HandleCreate)
			r.Get("/", invoiceHandler.HandleList)
			r.Get("/{id}", invoiceHandler.HandleGet)
			r.Get("/{id}/pdf", invoiceHandler.HandlePDF)
		})
	})

	return r
}
