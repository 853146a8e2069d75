package credits

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrHoldNotFound        = errors.New("credit hold not found")
	ErrHoldNotActive       = errors.New("credit hold is not active")
)

// New accounts are seeded once with this balance.
const StarterCredits = 100

// HouseAccountID is the account rake lands on.
const HouseAccountID = "house"

// Account is a user_credits document. Held credits stay part of Balance
// until a hold is captured; spendable credits are Balance minus Held.
type Account struct {
	Balance   int64     `firestore:"Balance" json:"balance"`
	Held      int64     `firestore:"Held" json:"held"`
	UpdatedAt time.Time `firestore:"UpdatedAt" json:"updatedAt"`
}

// Spendable is what the user can still commit to new holds.
func (a Account) Spendable() int64 {
	return a.Balance - a.Held
}

// Hold statuses. A hold is single-use: held moves to captured or released,
// never back.
const (
	HoldStatusHeld     = "held"
	HoldStatusCaptured = "captured"
	HoldStatusReleased = "released"
)

type Hold struct {
	ID        string    `firestore:"-"`
	UserID    string    `firestore:"UserID"`
	MatchID   string    `firestore:"MatchID"`
	Amount    int64     `firestore:"Amount"`
	Status    string    `firestore:"Status"`
	CreatedAt time.Time `firestore:"CreatedAt"`
	ClosedAt  time.Time `firestore:"ClosedAt,omitempty"`
}

// Ledger entry kinds.
const (
	EntryGrant   = "grant"
	EntryCapture = "capture"
	EntryPayout  = "payout"
	EntryRake    = "rake"
)

// Entry is an immutable ledger row. Amount is the signed delta applied to
// the account balance in the same transaction.
type Entry struct {
	ID        string    `firestore:"-" json:"id"`
	UserID    string    `firestore:"UserID" json:"userId"`
	MatchID   string    `firestore:"MatchID,omitempty" json:"matchId,omitempty"`
	Kind      string    `firestore:"Kind" json:"kind"`
	Amount    int64     `firestore:"Amount" json:"amount"`
	Note      string    `firestore:"Note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time `firestore:"CreatedAt" json:"createdAt"`
}

// DuelSettlement describes the money side of a finished match. Refund means
// both holds are released with no transfers (draw, void or cancellation).
// Otherwise both holds are captured, the winner is paid WinnerPayout and the
// house keeps Rake; captured fees always equal payout plus rake.
type DuelSettlement struct {
	MatchID     string
	HostID      string
	GuestID     string
	HostHoldID  string
	GuestHoldID string
	EntryFee    int64

	Refund       bool
	WinnerID     string
	WinnerPayout int64
	Rake         int64
}

// Validate rejects settlements that would create or destroy credits.
func (d DuelSettlement) Validate() error {
	if d.Refund {
		return nil
	}
	if d.WinnerID != d.HostID && d.WinnerID != d.GuestID {
		return fmt.Errorf("settlement for match %s names winner %s who is not a participant", d.MatchID, d.WinnerID)
	}
	if d.WinnerPayout < 0 || d.Rake < 0 {
		return fmt.Errorf("settlement for match %s has negative transfer amounts", d.MatchID)
	}
	if d.WinnerPayout+d.Rake != 2*d.EntryFee {
		return fmt.Errorf("settlement for match %s does not balance: payout %d + rake %d != pot %d",
			d.MatchID, d.WinnerPayout, d.Rake, 2*d.EntryFee)
	}
	return nil
}
