package model

import "time"

// TokenData contains the data stored with a session token. Tokens identify
// the game-server host talking to the API, not individual players.
type TokenData struct {
	HostID    string    `json:"host_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
