package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/config"
	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
	"github.com/go-otp-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-otp-auth/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	Registry    OTPRegistry
	SMSSender   SMSSender
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.ContentSecurityPolicy)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.NotFound)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:             deps.UserRepo,
		Registry:             deps.Registry,
		SMSSender:            deps.SMSSender,
		JWTProvider:          deps.JWTProvider,
		BcryptCost:           cfg.BcryptCost,
		BroadcastConcurrency: cfg.BroadcastConcurrency,
		BroadcastRate:        cfg.BroadcastRate,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)

	r.Get("/health-check/{action}", healthH.Ping)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/", healthH.Status)
		r.Post("/signup", authH.Signup)
		r.Post("/verify-otp", authH.VerifyOTP)
		r.Post("/login", authH.Login)
		r.Post("/forgot-password", authH.ForgotPassword)
		r.Post("/reset-password", authH.ResetPassword)
		r.Post("/forward-message", authH.ForwardMessage)

		r.With(appmiddleware.Auth(deps.JWTProvider)).Get("/me", authH.Me)
	})

	return r
}
