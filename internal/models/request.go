package models

import "strings"

type ChessVerifyRequest struct {
	ChessUsername string `json:"chessUsername"`
}

// implements the Validator interface
func (r *ChessVerifyRequest) Validate() error {
	r.ChessUsername = strings.TrimSpace(r.ChessUsername)
	if r.ChessUsername == "" {
		return &ErrorResponse{
			Code:    "missing_chess_username",
			Message: "chessUsername is required",
		}
	}
	return nil
}

// ChessConfirmRequest carries either the raw verification code or the signed
// token returned when the code was issued.
type ChessConfirmRequest struct {
	ChessUsername     string `json:"chessUsername"`
	VerificationCode  string `json:"verificationCode"`
	VerificationToken string `json:"verificationToken"`
}

func (r *ChessConfirmRequest) Validate() error {
	r.ChessUsername = strings.TrimSpace(r.ChessUsername)
	if r.ChessUsername == "" {
		return &ErrorResponse{
			Code:    "missing_chess_username",
			Message: "chessUsername is required",
		}
	}
	if r.VerificationCode == "" && r.VerificationToken == "" {
		return &ErrorResponse{
			Code:    "missing_verification_code",
			Message: "verificationCode or verificationToken is required",
		}
	}
	return nil
}
