package models

import (
	"gorm.io/gorm"
)

// User is an account created from a Google sign-in. ChessUsername is nil until
// the user has proven ownership of a Chess.com profile.
type User struct {
	gorm.Model
	GoogleID      string     `gorm:"uniqueIndex;not null" json:"-"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	ChessUsername *string    `gorm:"uniqueIndex" json:"chessUsername"`
	ChessInfo     *ChessInfo `gorm:"constraint:OnDelete:CASCADE" json:"chessInfo,omitempty"`
}

// IsLinked reports whether the user holds a verified Chess.com username.
func (u *User) IsLinked() bool {
	return u.ChessUsername != nil && *u.ChessUsername != ""
}
