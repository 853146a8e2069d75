package credits

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/samborkent/uuidv7"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	accountsCollection = "user_credits"
	holdsCollection    = "credit_holds"
	entriesCollection  = "credit_entries"

	ledgerPageSize = 50
)

// CreditsService owns every mutation of user credit balances. All writes
// happen inside Firestore transactions so a crashed settlement can never
// leave a half-applied transfer behind.
type CreditsService struct {
	firestoreClient *firestore.Client
	logger          *zap.Logger
}

func NewCreditsService(firestoreClient *firestore.Client, logger *zap.Logger) *CreditsService {
	return &CreditsService{
		firestoreClient: firestoreClient,
		logger:          logger,
	}
}

func (s *CreditsService) accountRef(userID string) *firestore.DocumentRef {
	return s.firestoreClient.Collection(accountsCollection).Doc(userID)
}

func (s *CreditsService) holdRef(holdID string) *firestore.DocumentRef {
	return s.firestoreClient.Collection(holdsCollection).Doc(holdID)
}

// GetBalance returns the account for userID. Accounts are materialized
// lazily on first write, so a missing document reads as a fresh account
// with the starter balance.
func (s *CreditsService) GetBalance(ctx context.Context, userID string) (*Account, error) {
	doc, err := s.accountRef(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return &Account{Balance: seedBalance(userID)}, nil
	}
	if err != nil {
		return nil, err
	}

	var account Account
	if err := doc.DataTo(&account); err != nil {
		// consistency error. The account document no longer matches the struct.
		return nil, fmt.Errorf("consistency error. Converting %+v to internal credits.Account struct failed: %w", doc.Data(), err)
	}
	return &account, nil
}

// GetLedger returns the newest ledger entries for userID.
func (s *CreditsService) GetLedger(ctx context.Context, userID string) ([]Entry, error) {
	iter := s.firestoreClient.Collection(entriesCollection).
		Where("UserID", "==", userID).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(ledgerPageSize).
		Documents(ctx)
	defer iter.Stop()

	entries := []Entry{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var entry Entry
		if err := doc.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("consistency error. Converting %+v to internal credits.Entry struct failed: %w", doc.Data(), err)
		}
		entry.ID = doc.Ref.ID
		entries = append(entries, entry)
	}
	return entries, nil
}

// PlaceHold reserves amount credits of userID for matchID. The credits stay
// on the balance but are no longer spendable until the hold is captured or
// released. Fails with ErrInsufficientCredits when the spendable balance is
// too small.
func (s *CreditsService) PlaceHold(ctx context.Context, userID, matchID string, amount int64) (*Hold, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("hold amount must be positive, got %d", amount)
	}

	hold := Hold{
		ID:        uuidv7.New().String(),
		UserID:    userID,
		MatchID:   matchID,
		Amount:    amount,
		Status:    HoldStatusHeld,
		CreatedAt: time.Now(),
	}

	err := s.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		account, exists, err := s.readAccountTx(tx, userID)
		if err != nil {
			return err
		}
		if account.Spendable() < amount {
			return fmt.Errorf("%w: have %d spendable, need %d", ErrInsufficientCredits, account.Spendable(), amount)
		}

		account.Held += amount
		if err := s.writeAccountTx(tx, userID, account, exists); err != nil {
			return err
		}
		return tx.Create(s.holdRef(hold.ID), hold)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Placed credit hold",
		zap.String("userId", userID),
		zap.String("matchId", matchID),
		zap.Int64("amount", amount))
	return &hold, nil
}

// ReleaseHold puts the held credits back into the spendable balance. Only
// holds in status held can be released; anything else fails with
// ErrHoldNotActive.
func (s *CreditsService) ReleaseHold(ctx context.Context, holdID string) error {
	return s.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		hold, err := s.readHoldTx(tx, holdID)
		if err != nil {
			return err
		}
		if hold.Status != HoldStatusHeld {
			return fmt.Errorf("%w: hold %s is %s", ErrHoldNotActive, holdID, hold.Status)
		}

		account, exists, err := s.readAccountTx(tx, hold.UserID)
		if err != nil {
			return err
		}

		account.Held -= hold.Amount
		if err := s.writeAccountTx(tx, hold.UserID, account, exists); err != nil {
			return err
		}
		return tx.Update(s.holdRef(holdID), []firestore.Update{
			{Path: "Status", Value: HoldStatusReleased},
			{Path: "ClosedAt", Value: time.Now()},
		})
	})
}

// SettleDuel applies the whole money movement of one finished match in a
// single transaction: both holds close, the loser's fee and the winner's fee
// are captured, the winner receives the payout and the house keeps the rake.
// With Refund set both holds are released and no balances change.
func (s *CreditsService) SettleDuel(ctx context.Context, settlement DuelSettlement) error {
	if err := settlement.Validate(); err != nil {
		return err
	}

	err := s.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Firestore transactions demand every read before the first write.
		hostHold, err := s.readHoldTx(tx, settlement.HostHoldID)
		if err != nil {
			return err
		}
		guestHold, err := s.readHoldTx(tx, settlement.GuestHoldID)
		if err != nil {
			return err
		}
		if hostHold.Status != HoldStatusHeld {
			return fmt.Errorf("%w: hold %s is %s", ErrHoldNotActive, settlement.HostHoldID, hostHold.Status)
		}
		if guestHold.Status != HoldStatusHeld {
			return fmt.Errorf("%w: hold %s is %s", ErrHoldNotActive, settlement.GuestHoldID, guestHold.Status)
		}

		hostAccount, hostExists, err := s.readAccountTx(tx, settlement.HostID)
		if err != nil {
			return err
		}
		guestAccount, guestExists, err := s.readAccountTx(tx, settlement.GuestID)
		if err != nil {
			return err
		}

		var houseAccount *Account
		houseExists := false
		if !settlement.Refund {
			houseAccount, houseExists, err = s.readAccountTx(tx, HouseAccountID)
			if err != nil {
				return err
			}
		}

		closed := HoldStatusReleased
		now := time.Now()

		if !settlement.Refund {
			closed = HoldStatusCaptured

			hostAccount.Balance -= settlement.EntryFee
			guestAccount.Balance -= settlement.EntryFee
			s.appendEntryTx(tx, Entry{
				UserID:    settlement.HostID,
				MatchID:   settlement.MatchID,
				Kind:      EntryCapture,
				Amount:    -settlement.EntryFee,
				CreatedAt: now,
			})
			s.appendEntryTx(tx, Entry{
				UserID:    settlement.GuestID,
				MatchID:   settlement.MatchID,
				Kind:      EntryCapture,
				Amount:    -settlement.EntryFee,
				CreatedAt: now,
			})

			winnerAccount := hostAccount
			if settlement.WinnerID == settlement.GuestID {
				winnerAccount = guestAccount
			}
			winnerAccount.Balance += settlement.WinnerPayout
			s.appendEntryTx(tx, Entry{
				UserID:    settlement.WinnerID,
				MatchID:   settlement.MatchID,
				Kind:      EntryPayout,
				Amount:    settlement.WinnerPayout,
				CreatedAt: now,
			})

			houseAccount.Balance += settlement.Rake
			s.appendEntryTx(tx, Entry{
				UserID:    HouseAccountID,
				MatchID:   settlement.MatchID,
				Kind:      EntryRake,
				Amount:    settlement.Rake,
				CreatedAt: now,
			})
		}

		hostAccount.Held -= hostHold.Amount
		guestAccount.Held -= guestHold.Amount

		if err := s.writeAccountTx(tx, settlement.HostID, hostAccount, hostExists); err != nil {
			return err
		}
		if err := s.writeAccountTx(tx, settlement.GuestID, guestAccount, guestExists); err != nil {
			return err
		}
		if houseAccount != nil {
			if err := s.writeAccountTx(tx, HouseAccountID, houseAccount, houseExists); err != nil {
				return err
			}
		}

		holdUpdates := []firestore.Update{
			{Path: "Status", Value: closed},
			{Path: "ClosedAt", Value: now},
		}
		if err := tx.Update(s.holdRef(settlement.HostHoldID), holdUpdates); err != nil {
			return err
		}
		return tx.Update(s.holdRef(settlement.GuestHoldID), holdUpdates)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Settled duel credits",
		zap.String("matchId", settlement.MatchID),
		zap.Bool("refund", settlement.Refund),
		zap.String("winnerId", settlement.WinnerID),
		zap.Int64("payout", settlement.WinnerPayout),
		zap.Int64("rake", settlement.Rake))
	return nil
}

// Grant credits a user outside of match settlement, e.g. by an admin.
func (s *CreditsService) Grant(ctx context.Context, userID string, amount int64, note string) error {
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}

	return s.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		account, exists, err := s.readAccountTx(tx, userID)
		if err != nil {
			return err
		}

		account.Balance += amount
		if err := s.writeAccountTx(tx, userID, account, exists); err != nil {
			return err
		}
		s.appendEntryTx(tx, Entry{
			UserID:    userID,
			Kind:      EntryGrant,
			Amount:    amount,
			Note:      note,
			CreatedAt: time.Now(),
		})
		return nil
	})
}

// readAccountTx loads an account inside a transaction. Missing documents
// read as a fresh account so new users never hit a NotFound path; exists
// tells the writer whether the starter grant still has to be recorded.
func (s *CreditsService) readAccountTx(tx *firestore.Transaction, userID string) (*Account, bool, error) {
	doc, err := tx.Get(s.accountRef(userID))
	if status.Code(err) == codes.NotFound {
		return &Account{Balance: seedBalance(userID)}, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var account Account
	if err := doc.DataTo(&account); err != nil {
		return nil, false, fmt.Errorf("consistency error. Converting %+v to internal credits.Account struct failed: %w", doc.Data(), err)
	}
	return &account, true, nil
}

// writeAccountTx persists an account. The first write of a user account also
// records the starter grant so the ledger explains where the opening balance
// came from.
func (s *CreditsService) writeAccountTx(tx *firestore.Transaction, userID string, account *Account, exists bool) error {
	account.UpdatedAt = time.Now()
	if err := tx.Set(s.accountRef(userID), account); err != nil {
		return err
	}
	if !exists && userID != HouseAccountID {
		s.appendEntryTx(tx, Entry{
			UserID:    userID,
			Kind:      EntryGrant,
			Amount:    StarterCredits,
			Note:      "starter credits",
			CreatedAt: time.Now(),
		})
	}
	return nil
}

func (s *CreditsService) readHoldTx(tx *firestore.Transaction, holdID string) (*Hold, error) {
	doc, err := tx.Get(s.holdRef(holdID))
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: %s", ErrHoldNotFound, holdID)
	}
	if err != nil {
		return nil, err
	}

	var hold Hold
	if err := doc.DataTo(&hold); err != nil {
		return nil, fmt.Errorf("consistency error. Converting %+v to internal credits.Hold struct failed: %w", doc.Data(), err)
	}
	hold.ID = doc.Ref.ID
	return &hold, nil
}

// appendEntryTx writes a ledger row with a time-ordered ID so the raw
// collection already lists in chronological order.
func (s *CreditsService) appendEntryTx(tx *firestore.Transaction, entry Entry) {
	entryID := uuidv7.New().String()
	// Create on a fresh UUID cannot collide, and transaction writes are
	// buffered, so the error is only ever a marshalling problem.
	if err := tx.Create(s.firestoreClient.Collection(entriesCollection).Doc(entryID), entry); err != nil {
		s.logger.Error("Buffering ledger entry failed", zap.Error(err))
	}
}

func seedBalance(userID string) int64 {
	if userID == HouseAccountID {
		return 0
	}
	return StarterCredits
}
