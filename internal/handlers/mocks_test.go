package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chessconnect/api/internal/jobs"
	"chessconnect/api/internal/middleware"
	"chessconnect/api/internal/models"
	"chessconnect/api/internal/repositories"
	"chessconnect/api/internal/services"
)

const testSecret = "handler-secret"

type mockUserRepo struct {
	getUserByIDFn      func(uint) (*models.User, error)
	upsertGoogleUserFn func(repositories.GoogleIdentity) (*models.User, error)
	deleteUserFn       func(uint) error
}

func (m *mockUserRepo) GetUserByID(id uint) (*models.User, error) {
	if m.getUserByIDFn == nil {
		panic("unexpected call to GetUserByID")
	}
	return m.getUserByIDFn(id)
}

func (m *mockUserRepo) UpsertGoogleUser(identity repositories.GoogleIdentity) (*models.User, error) {
	if m.upsertGoogleUserFn == nil {
		panic("unexpected call to UpsertGoogleUser")
	}
	return m.upsertGoogleUserFn(identity)
}

func (m *mockUserRepo) DeleteUser(id uint) error {
	if m.deleteUserFn == nil {
		panic("unexpected call to DeleteUser")
	}
	return m.deleteUserFn(id)
}

type mockIdentity struct {
	exchangeFn func(context.Context, string) (repositories.GoogleIdentity, error)
}

func (m *mockIdentity) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (m *mockIdentity) Exchange(ctx context.Context, code string) (repositories.GoogleIdentity, error) {
	if m.exchangeFn == nil {
		panic("unexpected call to Exchange")
	}
	return m.exchangeFn(ctx, code)
}

type mockVerifier struct {
	issueFn   func(context.Context, uint, string) (*services.Ticket, error)
	confirmFn func(context.Context, uint, string, string) (*models.ChessInfo, error)
}

func (m *mockVerifier) Issue(ctx context.Context, userID uint, username string) (*services.Ticket, error) {
	if m.issueFn == nil {
		panic("unexpected call to Issue")
	}
	return m.issueFn(ctx, userID, username)
}

func (m *mockVerifier) Confirm(ctx context.Context, userID uint, username, code string) (*models.ChessInfo, error) {
	if m.confirmFn == nil {
		panic("unexpected call to Confirm")
	}
	return m.confirmFn(ctx, userID, username, code)
}

type mockRefresher struct {
	refreshFn func(context.Context, uint, string) (*models.ChessInfo, error)
}

func (m *mockRefresher) RefreshRatings(ctx context.Context, userID uint, username string) (*models.ChessInfo, error) {
	if m.refreshFn == nil {
		panic("unexpected call to RefreshRatings")
	}
	return m.refreshFn(ctx, userID, username)
}

type mockChess struct {
	percentilesFn func(context.Context, string) (models.Percentiles, error)
	dashboardFn   func(context.Context) (*models.Dashboard, error)
}

func (m *mockChess) Percentiles(ctx context.Context, username string) (models.Percentiles, error) {
	if m.percentilesFn == nil {
		panic("unexpected call to Percentiles")
	}
	return m.percentilesFn(ctx, username)
}

func (m *mockChess) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	if m.dashboardFn == nil {
		panic("unexpected call to Dashboard")
	}
	return m.dashboardFn(ctx)
}

type mockTrigger struct {
	passes []jobs.Pass
}

func (m *mockTrigger) Trigger(pass jobs.Pass) {
	m.passes = append(m.passes, pass)
}

func newUser(id uint, chessUsername string) *models.User {
	u := &models.User{GoogleID: "g", Email: "user@example.com", Name: "User"}
	u.ID = id
	if chessUsername != "" {
		u.ChessUsername = &chessUsername
	}
	return u
}

// authedJSONRequest builds a request that has already passed RequireAuth.
func authedJSONRequest(method, target, body string, userID uint) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp
}
