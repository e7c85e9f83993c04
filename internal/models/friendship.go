package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipStatusPending FriendshipStatus = "pending"
	FriendshipStatusFriends FriendshipStatus = "friends"
)

// Valid reports whether s is one of the known statuses.
func (s FriendshipStatus) Valid() bool {
	return s == FriendshipStatusPending || s == FriendshipStatusFriends
}

type Friendship struct {
	ID          uuid.UUID        `json:"id"`
	RequestorID uuid.UUID        `json:"requestor"`
	RequesteeID uuid.UUID        `json:"requestee"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Involves reports whether accountID is the requestor or the requestee.
func (f *Friendship) Involves(accountID uuid.UUID) bool {
	return f.RequestorID == accountID || f.RequesteeID == accountID
}

// OtherParty returns the participant that is not accountID.
func (f *Friendship) OtherParty(accountID uuid.UUID) uuid.UUID {
	if f.RequestorID == accountID {
		return f.RequesteeID
	}
	return f.RequestorID
}

// FriendRequest is a pending friendship with the requestor resolved.
type FriendRequest struct {
	Friendship
	Requestor AccountSummary `json:"requestor_account"`
}

// FriendWithAccount is a friendship with the other participant resolved.
type FriendWithAccount struct {
	Friendship
	Friend AccountSummary `json:"friend"`
}

// FriendshipFilter selects friendships for listing and counting.
// Zero-valued fields are ignored. Participant matches either side.
type FriendshipFilter struct {
	RequestorID uuid.UUID
	RequesteeID uuid.UUID
	Participant uuid.UUID
	Status      FriendshipStatus
}

// PairKey returns an order-independent key for the unordered pair {a, b}.
func PairKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if as > bs {
		as, bs = bs, as
	}
	return as + ":" + bs
}
