package handlers

import (
	"net/http"
	"strings"

	"chessconnect/api/internal/jobs"
	"chessconnect/api/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ChessHandler struct {
	Chess   ChessQueries
	Refresh RefreshTrigger
	Logger  *zap.Logger
}

func (h *ChessHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *ChessHandler) PercentilesHandler(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "chessUsername"))
	if username == "" {
		utils.JSONError(w, http.StatusBadRequest, "missing_chess_username", "chessUsername is required")
		return
	}

	pct, err := h.Chess.Percentiles(r.Context(), username)
	if err != nil {
		writeServiceError(w, h.logger(), err)
		return
	}
	utils.JSON(w, http.StatusOK, pct)
}

func (h *ChessHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Chess.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, h.logger(), err)
		return
	}
	utils.JSON(w, http.StatusOK, dashboard)
}

// RefreshHandler starts a full refresh pass and returns without waiting for it.
func (h *ChessHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	h.Refresh.Trigger(jobs.PassFull)
	utils.JSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "pass": string(jobs.PassFull)})
}
