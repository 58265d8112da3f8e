package routers

import (
	"chessconnect/api/internal/handlers"
	"chessconnect/api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func ChessRoutes(r *chi.Mux, chessHandler *handlers.ChessHandler, jwtSecret string) {
	r.Route("/api/chess", func(r chi.Router) {
		r.Get("/percentiles/{chessUsername}", chessHandler.PercentilesHandler)
		r.Get("/dashboard", chessHandler.DashboardHandler)
		r.With(middleware.RequireAuth(jwtSecret)).Post("/refresh", chessHandler.RefreshHandler)
	})
}
