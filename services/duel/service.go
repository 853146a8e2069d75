package duel

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	auth "firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"github.com/gin-gonic/gin"
	"github.com/samborkent/uuidv7"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lingxiaoxu/Stanse-sub005/pkg/invitecode"
	"github.com/lingxiaoxu/Stanse-sub005/services/credits"
)

const (
	matchesCollection   = "duel_matches"
	questionsCollection = "duel_questions"
	eventsCollection    = "events"

	// Lobby matches that never found an opponent are cancelled after this.
	waitingTTL = 10 * time.Minute
	// Running matches are force-settled from whatever events exist after this.
	activeTTL = 30 * time.Minute
	// A player whose last heartbeat is older than this counts as gone.
	presenceTTL = 90 * time.Second
	// Presence is not checked during the first moments of a match.
	presenceGrace = 2 * time.Minute

	imageURLTTL = 15 * time.Minute

	openMatchesPageSize = 20
)

// DuelService runs the trivia duel lifecycle: lobby, joining, gameplay
// events, settlement and the janitor that cleans up abandoned matches.
// Money never moves here directly; every transfer goes through the
// credits service.
type DuelService struct {
	firestoreClient *firestore.Client
	databaseClient  *db.Client
	storageClient   *storage.Client
	creditsService  *credits.CreditsService
	imageBucket     string
	logger          *zap.Logger
}

// NewDuelService wires the duel service. databaseClient and storageClient
// may be nil; presence tracking and question images degrade gracefully
// without them.
func NewDuelService(firestoreClient *firestore.Client, databaseClient *db.Client, storageClient *storage.Client, creditsService *credits.CreditsService, imageBucket string, logger *zap.Logger) *DuelService {
	return &DuelService{
		firestoreClient: firestoreClient,
		databaseClient:  databaseClient,
		storageClient:   storageClient,
		creditsService:  creditsService,
		imageBucket:     imageBucket,
		logger:          logger,
	}
}

func (s *DuelService) matchRef(matchID string) *firestore.DocumentRef {
	return s.firestoreClient.Collection(matchesCollection).Doc(matchID)
}

// CreateMatch opens a new match in the lobby. The host's entry fee is put
// on hold before the match document exists, so a match can never be joined
// without its stake already secured.
func (s *DuelService) CreateMatch(c *gin.Context, req CreateMatchRequest) (*Match, error) {
	token := c.MustGet("token").(*auth.Token)

	if !ValidEntryFee(req.EntryFee) {
		return nil, fmt.Errorf("%w: %d, allowed stakes are %v", ErrInvalidEntryFee, req.EntryFee, entryFees)
	}

	questionIDs, err := s.drawQuestions(c, req.Category)
	if err != nil {
		return nil, err
	}

	matchID := uuidv7.New().String()

	hold, err := s.creditsService.PlaceHold(c, token.UID, matchID, req.EntryFee)
	if err != nil {
		return nil, err
	}

	match := Match{
		ID:          matchID,
		HostID:      token.UID,
		Status:      StatusWaiting,
		EntryFee:    req.EntryFee,
		Category:    req.Category,
		Private:     req.Private,
		QuestionIDs: questionIDs,
		HostHoldID:  hold.ID,
		CreatedAt:   time.Now(),
	}
	if req.Private {
		match.InviteCode = invitecode.Generate(matchID)
	}

	if _, err := s.matchRef(matchID).Create(c, match); err != nil {
		if releaseErr := s.creditsService.ReleaseHold(c, hold.ID); releaseErr != nil {
			s.logger.Error("Releasing hold after failed match creation failed",
				zap.String("holdId", hold.ID), zap.Error(releaseErr))
		}
		return nil, err
	}

	s.logger.Info("Match created",
		zap.String("matchId", matchID),
		zap.String("hostId", token.UID),
		zap.Int64("entryFee", req.EntryFee),
		zap.Bool("private", req.Private))
	return &match, nil
}

// drawQuestions picks a random question set, optionally restricted to a
// category.
func (s *DuelService) drawQuestions(ctx context.Context, category string) ([]string, error) {
	query := s.firestoreClient.Collection(questionsCollection).Query
	if category != "" {
		query = query.Where("Category", "==", category)
	}

	iter := query.Select().Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, doc.Ref.ID)
	}

	if len(ids) < QuestionsPerMatch {
		return nil, fmt.Errorf("%w: have %d in category %q, need %d", ErrNotEnoughQuestions, len(ids), category, QuestionsPerMatch)
	}

	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids[:QuestionsPerMatch], nil
}

// JoinMatch enters the caller as guest. The guest's stake is held first and
// released again if someone else won the seat in the meantime.
func (s *DuelService) JoinMatch(c *gin.Context, matchID string) (*Match, error) {
	token := c.MustGet("token").(*auth.Token)
	return s.join(c, matchID, token.UID)
}

// JoinByCode resolves an invite code to its match and joins it.
func (s *DuelService) JoinByCode(c *gin.Context, code string) (*Match, error) {
	token := c.MustGet("token").(*auth.Token)

	matchID, _, err := invitecode.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInviteCode, err)
	}

	match, err := s.getMatch(c, matchID)
	if err != nil {
		return nil, err
	}
	if match.InviteCode != code {
		return nil, ErrInvalidInviteCode
	}

	return s.join(c, matchID, token.UID)
}

func (s *DuelService) join(ctx context.Context, matchID, userID string) (*Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != StatusWaiting {
		return nil, fmt.Errorf("%w: match is %s", ErrMatchNotJoinable, match.Status)
	}
	if match.HostID == userID {
		return nil, ErrOwnMatch
	}

	hold, err := s.creditsService.PlaceHold(ctx, userID, matchID, match.EntryFee)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now()
	err = s.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(s.matchRef(matchID))
		if err != nil {
			return err
		}
		var current Match
		if err := doc.DataTo(&current); err != nil {
			return fmt.Errorf("consistency error. Converting %+v to internal duel.Match struct failed: %w", doc.Data(), err)
		}
		if current.Status != StatusWaiting || current.GuestID != "" {
			return fmt.Errorf("%w: seat already taken", ErrMatchNotJoinable)
		}

		return tx.Update(s.matchRef(matchID), []firestore.Update{
			{Path: "GuestID", Value: userID},
			{Path: "GuestHoldID", Value: hold.ID},
			{Path: "Status", Value: StatusActive},
			{Path: "StartedAt", Value: startedAt},
		})
	})
	if err != nil {
		if releaseErr := s.creditsService.ReleaseHold(ctx, hold.ID); releaseErr != nil {
			s.logger.Error("Releasing hold after failed join failed",
				zap.String("holdId", hold.ID), zap.Error(releaseErr))
		}
		return nil, err
	}

	match.GuestID = userID
	match.GuestHoldID = hold.ID
	match.Status = StatusActive
	match.StartedAt = startedAt

	s.logger.Info("Match joined",
		zap.String("matchId", matchID),
		zap.String("guestId", userID))
	return match, nil
}

// GetMatch returns a match to a participant, or to anyone while it is still
// a public lobby entry. The invite code is only ever shown to the host.
func (s *DuelService) GetMatch(c *gin.Context, matchID string) (*Match, error) {
	token := c.MustGet("token").(*auth.Token)

	match, err := s.getMatch(c, matchID)
	if err != nil {
		return nil, err
	}

	if !match.isParticipant(token.UID) && (match.Private || match.Status != StatusWaiting) {
		return nil, ErrNotParticipant
	}
	if token.UID != match.HostID {
		match.InviteCode = ""
	}
	return match, nil
}

// ListOpenMatches returns public lobby matches waiting for an opponent.
func (s *DuelService) ListOpenMatches(c *gin.Context) ([]Match, error) {
	iter := s.firestoreClient.Collection(matchesCollection).
		Where("Status", "==", StatusWaiting).
		Where("Private", "==", false).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(openMatchesPageSize).
		Documents(c)
	defer iter.Stop()

	matches := []Match{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var match Match
		if err := doc.DataTo(&match); err != nil {
			return nil, fmt.Errorf("consistency error. Converting %+v to internal duel.Match struct failed: %w", doc.Data(), err)
		}
		match.ID = doc.Ref.ID
		matches = append(matches, match)
	}
	return matches, nil
}

// GetQuestions returns the question set of a running match with signed
// image URLs. Correct answers never leave the backend; settlement checks
// submitted answers server-side.
func (s *DuelService) GetQuestions(c *gin.Context, matchID string) ([]Question, error) {
	token := c.MustGet("token").(*auth.Token)

	match, err := s.getMatch(c, matchID)
	if err != nil {
		return nil, err
	}
	if !match.isParticipant(token.UID) {
		return nil, ErrNotParticipant
	}
	if match.Status == StatusWaiting {
		return nil, fmt.Errorf("%w: match has not started", ErrMatchNotActive)
	}

	questions, err := s.loadQuestions(c, match.QuestionIDs)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].ImageURL = s.signImageURL(questions[i].ImagePath)
	}
	return questions, nil
}

// SubmitAnswer records one gameplay event. The shared answers array is
// appended inside a transaction so concurrent submissions fold in cleanly,
// and correctness is decided server-side while appending. Events are keyed
// by their client ID so a retried submission lands exactly once.
func (s *DuelService) SubmitAnswer(c *gin.Context, matchID string, event Event) error {
	token := c.MustGet("token").(*auth.Token)

	if event.EventType != EventAnswer && event.EventType != EventTimeout {
		return fmt.Errorf("unknown event type %q", event.EventType)
	}
	if event.OptionIndex < 0 {
		return fmt.Errorf("option index %d is not valid", event.OptionIndex)
	}
	if event.ID == "" {
		event.ID = uuidv7.New().String()
	}
	// The server stamps the author; whatever the client sent is ignored.
	event.Author = token.UID

	return s.firestoreClient.RunTransaction(c, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(s.matchRef(matchID))
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		if err != nil {
			return err
		}
		var match Match
		if err := doc.DataTo(&match); err != nil {
			return fmt.Errorf("consistency error. Converting %+v to internal duel.Match struct failed: %w", doc.Data(), err)
		}

		if !match.isParticipant(event.Author) {
			return ErrNotParticipant
		}
		if match.Status != StatusActive {
			return fmt.Errorf("%w: match is %s", ErrMatchNotActive, match.Status)
		}
		if event.QuestionOrder < 0 || event.QuestionOrder >= len(match.QuestionIDs) {
			return fmt.Errorf("question order %d is outside the match", event.QuestionOrder)
		}
		for _, record := range match.Answers {
			if record.EventID == event.ID {
				// Retry of a submission that already landed.
				return nil
			}
		}
		if answered := answeredCount(match.Answers, event.Author); event.QuestionOrder > answered {
			return fmt.Errorf("%w: question %d submitted after %d answers", ErrOrderSkip, event.QuestionOrder, answered)
		}

		record := AnswerRecord{
			EventID:       event.ID,
			Author:        event.Author,
			EventType:     event.EventType,
			QuestionOrder: event.QuestionOrder,
			OptionIndex:   event.OptionIndex,
			ElapsedMs:     event.ElapsedMs,
			Timestamp:     event.Timestamp,
		}
		if event.EventType == EventAnswer {
			questionDoc, err := tx.Get(s.firestoreClient.Collection(questionsCollection).Doc(match.QuestionIDs[event.QuestionOrder]))
			if err != nil {
				return err
			}
			var question Question
			if err := questionDoc.DataTo(&question); err != nil {
				return fmt.Errorf("consistency error. Converting %+v to internal duel.Question struct failed: %w", questionDoc.Data(), err)
			}
			record.Correct = event.OptionIndex == question.CorrectIndex
		}

		if err := tx.Update(s.matchRef(matchID), []firestore.Update{
			{Path: "Answers", Value: append(match.Answers, record)},
		}); err != nil {
			return err
		}
		return tx.Set(s.matchRef(matchID).Collection(eventsCollection).Doc(event.ID), event)
	})
}

// answeredCount is how many events a player has already folded into the
// shared answers array.
func answeredCount(answers []AnswerRecord, author string) int {
	count := 0
	for _, record := range answers {
		if record.Author == author {
			count++
		}
	}
	return count
}

// Heartbeat refreshes the caller's presence for the janitor. Presence lives
// in the realtime database so frequent writes stay off Firestore.
func (s *DuelService) Heartbeat(c *gin.Context, matchID string) error {
	token := c.MustGet("token").(*auth.Token)

	if s.databaseClient == nil {
		return ErrPresenceDisabled
	}

	match, err := s.getMatch(c, matchID)
	if err != nil {
		return err
	}
	if !match.isParticipant(token.UID) {
		return ErrNotParticipant
	}
	if match.Status != StatusActive {
		return fmt.Errorf("%w: match is %s", ErrMatchNotActive, match.Status)
	}

	ref := s.databaseClient.NewRef(fmt.Sprintf("presence/%s/%s", matchID, token.UID))
	return ref.Set(c, time.Now().UnixMilli())
}

// SettleMatch replays both players' events, decides the outcome and moves
// the credits. Settling an already settled match returns it unchanged.
func (s *DuelService) SettleMatch(c *gin.Context, matchID string) (*Match, error) {
	token := c.MustGet("token").(*auth.Token)

	match, err := s.getMatch(c, matchID)
	if err != nil {
		return nil, err
	}
	if !match.isParticipant(token.UID) {
		return nil, ErrNotParticipant
	}

	return s.settle(c, match)
}

func (s *DuelService) settle(ctx context.Context, match *Match) (*Match, error) {
	if match.isFinal() {
		return match, nil
	}
	if match.Status != StatusActive {
		return nil, fmt.Errorf("%w: match is %s", ErrMatchNotActive, match.Status)
	}

	events, err := s.readEvents(ctx, match.ID)
	if err != nil {
		return nil, err
	}

	var hostEvents, guestEvents []Event
	for _, event := range events {
		switch event.Author {
		case match.HostID:
			hostEvents = append(hostEvents, event)
		case match.GuestID:
			guestEvents = append(guestEvents, event)
		default:
			s.logger.Warn("Dropping event from foreign author",
				zap.String("matchId", match.ID),
				zap.String("author", event.Author))
		}
	}

	questions, err := s.loadQuestions(ctx, match.QuestionIDs)
	if err != nil {
		return nil, err
	}

	outcome := computeOutcome(*match, hostEvents, guestEvents, questions)
	settlement := buildSettlement(*match, outcome)

	err = s.creditsService.SettleDuel(ctx, settlement)
	if errors.Is(err, credits.ErrHoldNotActive) {
		// The credits already moved in an earlier attempt that died before
		// finalizing the document. The outcome recomputes deterministically,
		// so finishing the document now is safe.
		s.logger.Warn("Credit holds already closed, finalizing match document",
			zap.String("matchId", match.ID))
	} else if err != nil {
		return nil, err
	}

	finalStatus := StatusCompleted
	if outcome.Kind == OutcomeVoid {
		finalStatus = StatusVoided
	}

	settledAt := time.Now()
	err = s.transitionMatch(ctx, match.ID, StatusActive, []firestore.Update{
		{Path: "Status", Value: finalStatus},
		{Path: "Outcome", Value: outcome.Kind},
		{Path: "WinnerID", Value: outcome.WinnerID},
		{Path: "HostScore", Value: outcome.HostScore},
		{Path: "GuestScore", Value: outcome.GuestScore},
		{Path: "FlagReasons", Value: outcome.FlagReasons},
		{Path: "SettledAt", Value: settledAt},
	})
	if err != nil {
		return nil, err
	}

	match.Status = finalStatus
	match.Outcome = outcome.Kind
	match.WinnerID = outcome.WinnerID
	match.HostScore = outcome.HostScore
	match.GuestScore = outcome.GuestScore
	match.FlagReasons = outcome.FlagReasons
	match.SettledAt = settledAt

	s.logger.Info("Match settled",
		zap.String("matchId", match.ID),
		zap.String("outcome", outcome.Kind),
		zap.String("winnerId", outcome.WinnerID),
		zap.Int("hostScore", outcome.HostScore),
		zap.Int("guestScore", outcome.GuestScore),
		zap.Strings("flags", outcome.FlagReasons))
	return match, nil
}

// ExpireStaleMatches is the janitor: it cancels lobby matches nobody
// joined, voids running matches a player walked away from and force-settles
// matches that ran over the hard time limit. Individual failures are
// collected so one broken match never stalls the sweep.
func (s *DuelService) ExpireStaleMatches(ctx context.Context) error {
	var errs error
	now := time.Now()

	iter := s.firestoreClient.Collection(matchesCollection).
		Where("Status", "==", StatusWaiting).
		Where("CreatedAt", "<", now.Add(-waitingTTL)).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if err := s.cancelWaiting(ctx, doc); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	activeIter := s.firestoreClient.Collection(matchesCollection).
		Where("Status", "==", StatusActive).
		Documents(ctx)
	defer activeIter.Stop()

	for {
		doc, err := activeIter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			break
		}

		var match Match
		if err := doc.DataTo(&match); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("consistency error. Converting %+v to internal duel.Match struct failed: %w", doc.Data(), err))
			continue
		}
		match.ID = doc.Ref.ID

		switch {
		case now.Sub(match.StartedAt) > activeTTL:
			s.logger.Info("Force settling overdue match", zap.String("matchId", match.ID))
			if _, err := s.settle(ctx, &match); err != nil {
				errs = multierr.Append(errs, err)
			}
		case s.playerGone(ctx, match, now):
			s.logger.Info("Voiding abandoned match", zap.String("matchId", match.ID))
			if err := s.voidMatch(ctx, &match); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}

	return errs
}

// playerGone reports whether a participant stopped heartbeating. Without a
// realtime database there is no presence signal and the answer is always no.
func (s *DuelService) playerGone(ctx context.Context, match Match, now time.Time) bool {
	if s.databaseClient == nil || now.Sub(match.StartedAt) < presenceGrace {
		return false
	}

	var beats map[string]int64
	if err := s.databaseClient.NewRef("presence/"+match.ID).Get(ctx, &beats); err != nil {
		s.logger.Warn("Reading presence failed", zap.String("matchId", match.ID), zap.Error(err))
		return false
	}

	stale := func(userID string) bool {
		last, ok := beats[userID]
		return !ok || now.UnixMilli()-last > presenceTTL.Milliseconds()
	}
	return stale(match.HostID) || stale(match.GuestID)
}

// voidMatch refunds both stakes and closes the match without a winner.
func (s *DuelService) voidMatch(ctx context.Context, match *Match) error {
	settlement := credits.DuelSettlement{
		MatchID:     match.ID,
		HostID:      match.HostID,
		GuestID:     match.GuestID,
		HostHoldID:  match.HostHoldID,
		GuestHoldID: match.GuestHoldID,
		EntryFee:    match.EntryFee,
		Refund:      true,
	}
	err := s.creditsService.SettleDuel(ctx, settlement)
	if err != nil && !errors.Is(err, credits.ErrHoldNotActive) {
		return err
	}

	return s.transitionMatch(ctx, match.ID, StatusActive, []firestore.Update{
		{Path: "Status", Value: StatusVoided},
		{Path: "Outcome", Value: OutcomeVoid},
		{Path: "SettledAt", Value: time.Now()},
	})
}

// cancelWaiting releases the host's stake and closes a lobby match. The
// hold is single use, so racing sweeps cannot release it twice.
func (s *DuelService) cancelWaiting(ctx context.Context, doc *firestore.DocumentSnapshot) error {
	var match Match
	if err := doc.DataTo(&match); err != nil {
		return fmt.Errorf("consistency error. Converting %+v to internal duel.Match struct failed: %w", doc.Data(), err)
	}
	match.ID = doc.Ref.ID

	err := s.creditsService.ReleaseHold(ctx, match.HostHoldID)
	if err != nil && !errors.Is(err, credits.ErrHoldNotActive) {
		return err
	}

	s.logger.Info("Cancelling expired lobby match", zap.String("matchId", match.ID))
	return s.transitionMatch(ctx, match.ID, StatusWaiting, []firestore.Update{
		{Path: "Status", Value: StatusCancelled},
		{Path: "SettledAt", Value: time.Now()},
	})
}

// transitionMatch applies updates only if the match is still in the from
// status. Losing a transition race is not an error; the winner already
// wrote an equivalent final state.
func (s *DuelService) transitionMatch(ctx context.Context, matchID, from string, updates []firestore.Update) error {
	return s.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(s.matchRef(matchID))
		if err != nil {
			return err
		}
		var current Match
		if err := doc.DataTo(&current); err != nil {
			return fmt.Errorf("consistency error. Converting %+v to internal duel.Match struct failed: %w", doc.Data(), err)
		}
		if current.Status != from {
			return nil
		}
		return tx.Update(s.matchRef(matchID), updates)
	})
}

func (s *DuelService) getMatch(ctx context.Context, matchID string) (*Match, error) {
	doc, err := s.matchRef(matchID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if err != nil {
		return nil, err
	}

	var match Match
	if err := doc.DataTo(&match); err != nil {
		return nil, fmt.Errorf("consistency error. Converting %+v to internal duel.Match struct failed: %w", doc.Data(), err)
	}
	match.ID = doc.Ref.ID
	return &match, nil
}

func (s *DuelService) readEvents(ctx context.Context, matchID string) ([]Event, error) {
	iter := s.matchRef(matchID).Collection(eventsCollection).Documents(ctx)
	defer iter.Stop()

	var events []Event
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var event Event
		if err := doc.DataTo(&event); err != nil {
			return nil, fmt.Errorf("consistency error. Converting %+v to internal duel.Event struct failed: %w", doc.Data(), err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *DuelService) loadQuestions(ctx context.Context, questionIDs []string) ([]Question, error) {
	refs := make([]*firestore.DocumentRef, len(questionIDs))
	for i, id := range questionIDs {
		refs[i] = s.firestoreClient.Collection(questionsCollection).Doc(id)
	}

	docs, err := s.firestoreClient.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}

	questions := make([]Question, len(docs))
	for i, doc := range docs {
		if !doc.Exists() {
			return nil, fmt.Errorf("question %s no longer exists", refs[i].ID)
		}
		if err := doc.DataTo(&questions[i]); err != nil {
			return nil, fmt.Errorf("consistency error. Converting %+v to internal duel.Question struct failed: %w", doc.Data(), err)
		}
		questions[i].ID = doc.Ref.ID
	}
	return questions, nil
}

// signImageURL mints a short-lived download URL for a question image.
// Matches still work without images, so failures only log.
func (s *DuelService) signImageURL(path string) string {
	if s.storageClient == nil || s.imageBucket == "" || path == "" {
		return ""
	}

	url, err := s.storageClient.Bucket(s.imageBucket).SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(imageURLTTL),
	})
	if err != nil {
		s.logger.Warn("Signing question image URL failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return url
}
