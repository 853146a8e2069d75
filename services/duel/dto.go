package duel

import (
	"errors"
	"time"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchNotJoinable   = errors.New("match is not open for joining")
	ErrMatchNotActive     = errors.New("match is not active")
	ErrOwnMatch           = errors.New("cannot join your own match")
	ErrNotParticipant     = errors.New("user is not a participant of this match")
	ErrInvalidEntryFee    = errors.New("entry fee is not one of the allowed stakes")
	ErrNotEnoughQuestions = errors.New("not enough questions available")
	ErrInvalidInviteCode  = errors.New("invite code is not valid")
	ErrOrderSkip          = errors.New("question order skips ahead")
	ErrPresenceDisabled   = errors.New("presence tracking is not configured")
)

// Match statuses.
const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusVoided    = "voided"
)

// Outcomes of a settled match.
const (
	OutcomeHostWin  = "host_win"
	OutcomeGuestWin = "guest_win"
	OutcomeDraw     = "draw"
	OutcomeVoid     = "void"
)

// Match is a duel_matches document. Hold IDs and the question list stay
// server-side; clients fetch questions through GetQuestions which strips
// the answers.
type Match struct {
	ID          string   `firestore:"-" json:"id"`
	HostID      string   `firestore:"HostID" json:"hostId"`
	GuestID     string   `firestore:"GuestID,omitempty" json:"guestId,omitempty"`
	Status      string   `firestore:"Status" json:"status"`
	EntryFee    int64    `firestore:"EntryFee" json:"entryFee"`
	Category    string   `firestore:"Category,omitempty" json:"category,omitempty"`
	Private     bool     `firestore:"Private" json:"private"`
	InviteCode  string   `firestore:"InviteCode,omitempty" json:"inviteCode,omitempty"`
	QuestionIDs []string `firestore:"QuestionIDs" json:"-"`
	HostHoldID  string   `firestore:"HostHoldID" json:"-"`
	GuestHoldID string   `firestore:"GuestHoldID,omitempty" json:"-"`

	// Answers is the shared gameplay state both players read while the match
	// runs. Appends go through a transaction so concurrent submissions fold
	// in cleanly.
	Answers []AnswerRecord `firestore:"Answers,omitempty" json:"answers,omitempty"`

	Outcome     string   `firestore:"Outcome,omitempty" json:"outcome,omitempty"`
	WinnerID    string   `firestore:"WinnerID,omitempty" json:"winnerId,omitempty"`
	HostScore   int      `firestore:"HostScore" json:"hostScore"`
	GuestScore  int      `firestore:"GuestScore" json:"guestScore"`
	FlagReasons []string `firestore:"FlagReasons,omitempty" json:"-"`

	CreatedAt time.Time `firestore:"CreatedAt" json:"createdAt"`
	StartedAt time.Time `firestore:"StartedAt,omitempty" json:"startedAt,omitempty"`
	SettledAt time.Time `firestore:"SettledAt,omitempty" json:"settledAt,omitempty"`
}

func (m Match) isParticipant(userID string) bool {
	return userID == m.HostID || userID == m.GuestID
}

func (m Match) isFinal() bool {
	return m.Status == StatusCompleted || m.Status == StatusCancelled || m.Status == StatusVoided
}

// Question is a duel_questions document. CorrectIndex never leaves the
// backend; ImageURL is a short-lived signed URL minted per request.
type Question struct {
	ID           string   `firestore:"-" json:"id"`
	Text         string   `firestore:"Text" json:"text"`
	Options      []string `firestore:"Options" json:"options"`
	CorrectIndex int      `firestore:"CorrectIndex" json:"-"`
	Category     string   `firestore:"Category" json:"category"`
	ImagePath    string   `firestore:"ImagePath,omitempty" json:"-"`
	ImageURL     string   `firestore:"-" json:"imageUrl,omitempty"`
}

// Event types players emit during a match.
const (
	EventAnswer  = "ANSWER"
	EventTimeout = "TIMEOUT"
)

// Event is one gameplay event in the events subcollection of a match.
// Timestamps are client clocks in unix milliseconds; settlement only
// trusts their ordering per player, never across players.
type Event struct {
	Author        string `firestore:"author" json:"author"`
	EventType     string `firestore:"eventType" json:"eventType"`
	ID            string `firestore:"id" json:"id"`
	QuestionOrder int    `firestore:"questionOrder" json:"questionOrder"`
	OptionIndex   int    `firestore:"optionIndex" json:"optionIndex"`
	ElapsedMs     int64  `firestore:"elapsedMs" json:"elapsedMs"`
	Timestamp     int64  `firestore:"timestamp" json:"timestamp"`
}

// AnswerRecord is one row of the shared answers array: the submitted event
// plus the server-side correctness verdict. The correct index itself stays
// out of it.
type AnswerRecord struct {
	EventID       string `firestore:"EventID" json:"eventId"`
	Author        string `firestore:"Author" json:"author"`
	EventType     string `firestore:"EventType" json:"eventType"`
	QuestionOrder int    `firestore:"QuestionOrder" json:"questionOrder"`
	OptionIndex   int    `firestore:"OptionIndex" json:"optionIndex"`
	Correct       bool   `firestore:"Correct" json:"correct"`
	ElapsedMs     int64  `firestore:"ElapsedMs" json:"elapsedMs"`
	Timestamp     int64  `firestore:"Timestamp" json:"timestamp"`
}

// CreateMatchRequest is the body of POST /duel/v1/matches.
type CreateMatchRequest struct {
	EntryFee int64  `json:"entryFee"`
	Category string `json:"category"`
	Private  bool   `json:"private"`
}

// JoinByCodeRequest is the body of POST /duel/v1/matches/join.
type JoinByCodeRequest struct {
	Code string `json:"code"`
}
