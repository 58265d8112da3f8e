package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chessconnect/api/internal/models"
)

func serveVerify(t *testing.T, body string, next http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	handler := ValidateRequest[*models.ChessVerifyRequest]()(next)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/chess-verify", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestValidateRequestSuccess(t *testing.T) {
	called := false
	rec := serveVerify(t, `{"chessUsername":"  Magnus "}`, func(w http.ResponseWriter, r *http.Request) {
		called = true
		req := GetValidatedRequest[*models.ChessVerifyRequest](r)
		if req.ChessUsername != "Magnus" {
			t.Fatalf("expected trimmed username, got %q", req.ChessUsername)
		}
	})

	if !called {
		t.Fatal("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestValidateRequestInvalidJSON(t *testing.T) {
	rec := serveVerify(t, `{`, func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != "invalid_json" {
		t.Fatalf("expected invalid_json, got %q", resp.Code)
	}
}

func TestValidateRequestValidationErrors(t *testing.T) {
	rec := serveVerify(t, `{"chessUsername":"   "}`, func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation error, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != "missing_chess_username" {
		t.Fatalf("expected missing_chess_username, got %q", resp.Code)
	}
}

func TestValidateRequestConfirmNeedsCodeOrToken(t *testing.T) {
	handler := ValidateRequest[*models.ChessConfirmRequest]()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	tests := []struct {
		body string
		want int
	}{
		{`{"chessUsername":"magnus"}`, http.StatusBadRequest},
		{`{"chessUsername":"magnus","verificationCode":"c"}`, http.StatusOK},
		{`{"chessUsername":"magnus","verificationToken":"t"}`, http.StatusOK},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPost, "/confirm", bytes.NewBufferString(tc.body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.body, tc.want, rec.Code)
		}
	}
}
