package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/it-helpdesk/internal/auth"
	"github.com/frahmantamala/it-helpdesk/internal/ticket"
	"github.com/frahmantamala/it-helpdesk/internal/transport/middleware"
	"github.com/frahmantamala/it-helpdesk/internal/transport/swagger"
	"github.com/frahmantamala/it-helpdesk/internal/user"
)

type Handlers struct {
	Health   *HealthHandler
	Auth     *auth.Handler
	User     *user.Handler
	Ticket   *ticket.Handler
	Realtime http.Handler
}

type Options struct {
	AllowedOrigins []string
	OpenAPISpec    []byte
	Validator      *middleware.OpenAPIValidator
	Logger         *slog.Logger
}

func RegisterAllRoutes(router chi.Router, h Handlers, opts Options) {
	validate := func(next http.Handler) http.Handler { return next }
	if opts.Validator != nil {
		validate = opts.Validator.Middleware
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	router.Use(chiMiddleware.StripSlashes)

	if opts.OpenAPISpec != nil {
		router.Get(swagger.SpecPath, swagger.SpecHandler(opts.OpenAPISpec))
		router.Handle("/swagger/*", swagger.Handler())
	}

	if h.Realtime != nil {
		router.Handle("/ws", h.Realtime)
	}

	router.Route("/api", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		r.Group(func(pub chi.Router) {
			pub.Use(validate)
			pub.Post("/register", h.Auth.Register)
			pub.Post("/login", h.Auth.Login)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			pr.Group(func(ur chi.Router) {
				ur.Use(validate)

				ur.Post("/tickets", h.Ticket.CreateTicket)
				ur.Get("/tickets", h.Ticket.ListOwnTickets)
				ur.Get("/tickets/my-position", h.Ticket.MyQueuePosition)
				ur.Get("/it-status", h.Ticket.ITStatus)

				ur.Get("/users/me", h.User.GetCurrentUser)
				ur.Patch("/users/profile", h.User.UpdateProfile)
				ur.Patch("/users/password", h.User.ChangePassword)
			})

			pr.Route("/admin", func(ar chi.Router) {
				ar.Use(middleware.RequireAdmin)
				ar.Use(validate)

				ar.Get("/tickets", h.Ticket.ListQueue)
				ar.Get("/tickets/history", h.Ticket.ListHistory)
				ar.Patch("/tickets/{id}", h.Ticket.UpdateStatus)

				ar.Get("/users", h.User.ListUsers)
				ar.Post("/users", h.User.CreateUser)
				ar.Patch("/users/{id}", h.User.UpdateUser)
				ar.Delete("/users/{id}", h.User.DeleteUser)
			})
		})
	})
}
