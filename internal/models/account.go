package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID            uuid.UUID   `json:"id"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Email         string      `json:"email"`
	PasswordHash  string      `json:"-"`
	FriendshipIDs []uuid.UUID `json:"friendship_ids"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Summary returns the public display fields of the account.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
	}
}

type AccountSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

type CreateAccountParams struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}
