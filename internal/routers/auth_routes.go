package routers

import (
	"chessconnect/api/internal/handlers"
	"chessconnect/api/internal/middleware"
	"chessconnect/api/internal/models"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(r *chi.Mux, authHandler *handlers.AuthHandler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/google", authHandler.GoogleLoginHandler)             // Start Google sign-in
		r.Get("/google/callback", authHandler.GoogleCallbackHandler) // Finish Google sign-in

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(authHandler.JWTSecret))
			r.With(middleware.ValidateRequest[*models.ChessVerifyRequest]()).
				Post("/chess-verify", authHandler.ChessVerifyHandler) // Issue verification code
			r.With(middleware.ValidateRequest[*models.ChessConfirmRequest]()).
				Post("/chess-verify/confirm", authHandler.ChessConfirmHandler) // Confirm and link
		})
	})
}
