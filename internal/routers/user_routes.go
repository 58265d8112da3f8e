package routers

import (
	"chessconnect/api/internal/handlers"
	"chessconnect/api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func UserRoutes(r *chi.Mux, userHandler *handlers.UserHandler, jwtSecret string) {
	r.Route("/api/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtSecret))
		r.Get("/me", userHandler.MeHandler)          // Current user
		r.Delete("/me", userHandler.DeleteMeHandler) // Delete account
	})
}
