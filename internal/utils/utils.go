package utils

import "strings"

// NormalizeChessUsername canonicalizes a Chess.com handle. Chess.com treats
// usernames case-insensitively, so tickets and links are keyed on lower case.
func NormalizeChessUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
