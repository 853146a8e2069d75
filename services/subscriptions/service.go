package subscriptions

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const subscriptionsCollection = "user_subscriptions"

// SubscriptionsService manages trials and plan periods. It owns all writes
// to user_subscriptions; the model gateway only ever reads them.
type SubscriptionsService struct {
	firestoreClient *firestore.Client
	logger          *zap.Logger
}

func NewSubscriptionsService(firestoreClient *firestore.Client, logger *zap.Logger) *SubscriptionsService {
	return &SubscriptionsService{
		firestoreClient: firestoreClient,
		logger:          logger,
	}
}

func (s *SubscriptionsService) docRef(userID string) *firestore.DocumentRef {
	return s.firestoreClient.Collection(subscriptionsCollection).Doc(userID)
}

// StartTrial begins the one trial a user ever gets.
func (s *SubscriptionsService) StartTrial(ctx context.Context, userID string) (*Status, error) {
	now := time.Now()
	sub := Subscription{
		Plan:        trialPlan,
		Status:      StatusTrialing,
		TrialUsed:   true,
		TrialEndsAt: now.Add(trialDuration),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(s.docRef(userID))
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		if doc != nil && doc.Exists() {
			var current Subscription
			if err := doc.DataTo(&current); err != nil {
				return fmt.Errorf("consistency error. Converting %+v to internal subscriptions.Subscription struct failed: %w", doc.Data(), err)
			}
			if current.TrialUsed {
				return ErrTrialAlreadyUsed
			}
			state := evaluate(&current, now)
			if state.Status == StatusActive || state.Status == StatusTrialing {
				return ErrAlreadySubscribed
			}
			sub.CreatedAt = current.CreatedAt
		}

		return tx.Set(s.docRef(userID), sub)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Trial started",
		zap.String("userId", userID),
		zap.Time("endsAt", sub.TrialEndsAt))
	state := evaluate(&sub, now)
	return &state, nil
}

// Subscribe activates a plan for a full billing period. Payment handling
// lives outside this service; by the time this is called the purchase is
// already settled.
func (s *SubscriptionsService) Subscribe(ctx context.Context, userID, plan string) (*Status, error) {
	if !validPlan(plan) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}

	now := time.Now()
	err := s.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(s.docRef(userID))
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		sub := Subscription{
			Plan:        plan,
			Status:      StatusActive,
			PeriodStart: now,
			PeriodEnd:   now.Add(billingPeriod),
			AutoRenew:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if doc != nil && doc.Exists() {
			var current Subscription
			if err := doc.DataTo(&current); err != nil {
				return fmt.Errorf("consistency error. Converting %+v to internal subscriptions.Subscription struct failed: %w", doc.Data(), err)
			}
			sub.TrialUsed = current.TrialUsed
			sub.TrialEndsAt = current.TrialEndsAt
			sub.CreatedAt = current.CreatedAt
		}

		return tx.Set(s.docRef(userID), sub)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Subscription activated",
		zap.String("userId", userID),
		zap.String("plan", plan))
	return s.GetStatus(ctx, userID)
}

// CancelAutoRenew keeps the current period but stops the roll at its end.
func (s *SubscriptionsService) CancelAutoRenew(ctx context.Context, userID string) (*Status, error) {
	_, err := s.docRef(userID).Update(ctx, []firestore.Update{
		{Path: "auto_renew", Value: false},
		{Path: "updated_at", Value: time.Now()},
	})
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotSubscribed
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Auto renew cancelled", zap.String("userId", userID))
	return s.GetStatus(ctx, userID)
}

// GetStatus evaluates the stored subscription against the clock. Users
// without a document are free plan users who never trialed.
func (s *SubscriptionsService) GetStatus(ctx context.Context, userID string) (*Status, error) {
	doc, err := s.docRef(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		state := evaluate(nil, time.Now())
		return &state, nil
	}
	if err != nil {
		return nil, err
	}

	var sub Subscription
	if err := doc.DataTo(&sub); err != nil {
		return nil, fmt.Errorf("consistency error. Converting %+v to internal subscriptions.Subscription struct failed: %w", doc.Data(), err)
	}

	state := evaluate(&sub, time.Now())
	return &state, nil
}

// RenewSweep walks every non-final subscription and applies the clock:
// expired trials drop to free, lapsed auto-renewing periods roll over and
// lapsed cancelled ones expire. One broken document never stops the sweep.
func (s *SubscriptionsService) RenewSweep(ctx context.Context) error {
	iter := s.firestoreClient.Collection(subscriptionsCollection).
		Where("status", "in", []string{StatusTrialing, StatusActive, StatusPastDue}).
		Documents(ctx)
	defer iter.Stop()

	var errs error
	now := time.Now()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return multierr.Append(errs, err)
		}

		var sub Subscription
		if err := doc.DataTo(&sub); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("consistency error. Converting %+v to internal subscriptions.Subscription struct failed: %w", doc.Data(), err))
			continue
		}

		updates := sweepUpdates(&sub, now)
		if len(updates) == 0 {
			continue
		}
		if _, err := doc.Ref.Update(ctx, updates); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", doc.Ref.ID, err))
			continue
		}
		s.logger.Info("Subscription swept", zap.String("userId", doc.Ref.ID), zap.String("status", sub.Status))
	}
	return errs
}

// sweepUpdates decides what the sweep writes for one subscription. Nil
// means the document is current.
func sweepUpdates(sub *Subscription, now time.Time) []firestore.Update {
	switch sub.Status {
	case StatusTrialing:
		if now.After(sub.TrialEndsAt) {
			return []firestore.Update{
				{Path: "status", Value: StatusExpired},
				{Path: "plan", Value: PlanFree},
				{Path: "updated_at", Value: now},
			}
		}

	case StatusActive:
		if now.After(sub.PeriodEnd) {
			if sub.AutoRenew {
				return []firestore.Update{
					{Path: "current_period_start", Value: sub.PeriodEnd},
					{Path: "current_period_end", Value: sub.PeriodEnd.Add(billingPeriod)},
					{Path: "updated_at", Value: now},
				}
			}
			return []firestore.Update{
				{Path: "status", Value: StatusExpired},
				{Path: "plan", Value: PlanFree},
				{Path: "updated_at", Value: now},
			}
		}

	case StatusPastDue:
		if now.After(sub.PeriodEnd.Add(pastDueGrace)) {
			return []firestore.Update{
				{Path: "status", Value: StatusExpired},
				{Path: "plan", Value: PlanFree},
				{Path: "updated_at", Value: now},
			}
		}
	}
	return nil
}
