package duel

import (
	"fmt"
	"sort"

	"github.com/lingxiaoxu/Stanse-sub005/services/credits"
)

// QuestionsPerMatch is how many questions every duel runs over.
const QuestionsPerMatch = 7

// Scoring per question: correct answers gain a point, wrong answers cost
// two, timeouts are free.
const (
	pointsCorrect = 1
	pointsWrong   = -2
)

// Answer validation thresholds. Correct answers faster than a human can
// read the question are suspect; a player whose share of suspect answers
// crosses the limit forfeits the match.
const (
	suspectAnswerMs   = 100
	suspectShareLimit = 0.3
)

var entryFees = []int64{10, 25, 50, 100}

// ValidEntryFee reports whether fee is one of the allowed stakes.
func ValidEntryFee(fee int64) bool {
	for _, f := range entryFees {
		if f == fee {
			return true
		}
	}
	return false
}

// rakeFor is the house cut of a match at the given stake: a tenth of the
// pot, rounded up.
func rakeFor(fee int64) int64 {
	pot := 2 * fee
	return (pot + 9) / 10
}

// payoutFor is what the winner receives: the pot minus the rake.
func payoutFor(fee int64) int64 {
	return 2*fee - rakeFor(fee)
}

type playerResult struct {
	Score       int
	Answered    int
	Flagged     bool
	FlagReasons []string
}

// evaluatePlayer replays one player's events in timestamp order and scores
// them against the question set. It flags the player when the event stream
// breaks the rules an honest client cannot break: timestamps running
// backwards, questions answered out of order or twice, or too many
// instant correct answers.
func evaluatePlayer(playerID string, events []Event, questions []Question) playerResult {
	result := playerResult{}

	// Replay in question order. An honest client answers questions one
	// after another, so along this order its timestamps never decrease.
	sort.Slice(events, func(i, j int) bool {
		if events[i].QuestionOrder != events[j].QuestionOrder {
			return events[i].QuestionOrder < events[j].QuestionOrder
		}
		return events[i].Timestamp < events[j].Timestamp
	})

	flag := func(format string, args ...any) {
		result.Flagged = true
		result.FlagReasons = append(result.FlagReasons, playerID+": "+fmt.Sprintf(format, args...))
	}

	lastTimestamp := int64(0)
	nextOrder := 0
	suspect := 0

	for _, event := range events {
		if event.Timestamp < lastTimestamp {
			flag("timestamp %d is before previous event %d", event.Timestamp, lastTimestamp)
		}
		lastTimestamp = event.Timestamp

		if event.QuestionOrder != nextOrder {
			flag("question %d played out of order, expected %d", event.QuestionOrder, nextOrder)
			continue
		}
		if event.QuestionOrder >= len(questions) {
			flag("question %d is outside the match", event.QuestionOrder)
			continue
		}
		nextOrder++

		if event.EventType == EventTimeout {
			continue
		}

		question := questions[event.QuestionOrder]
		result.Answered++
		if event.OptionIndex == question.CorrectIndex {
			result.Score += pointsCorrect
			if event.ElapsedMs < suspectAnswerMs {
				suspect++
			}
		} else {
			result.Score += pointsWrong
		}
	}

	if result.Answered > 0 && float64(suspect)/float64(result.Answered) > suspectShareLimit {
		flag("%d of %d answers were correct in under %dms", suspect, result.Answered, suspectAnswerMs)
	}

	return result
}

// MatchOutcome is the verdict of replaying both players' events.
type MatchOutcome struct {
	Kind        string
	WinnerID    string
	HostScore   int
	GuestScore  int
	FlagReasons []string
}

// computeOutcome scores both players and decides the match. A flagged
// player forfeits; two flagged players void the match; otherwise the higher
// score wins and equal scores draw.
func computeOutcome(match Match, hostEvents, guestEvents []Event, questions []Question) MatchOutcome {
	host := evaluatePlayer(match.HostID, hostEvents, questions)
	guest := evaluatePlayer(match.GuestID, guestEvents, questions)

	outcome := MatchOutcome{
		HostScore:   host.Score,
		GuestScore:  guest.Score,
		FlagReasons: append(host.FlagReasons, guest.FlagReasons...),
	}

	switch {
	case host.Flagged && guest.Flagged:
		outcome.Kind = OutcomeVoid
	case host.Flagged:
		outcome.Kind = OutcomeGuestWin
		outcome.WinnerID = match.GuestID
	case guest.Flagged:
		outcome.Kind = OutcomeHostWin
		outcome.WinnerID = match.HostID
	case host.Score > guest.Score:
		outcome.Kind = OutcomeHostWin
		outcome.WinnerID = match.HostID
	case guest.Score > host.Score:
		outcome.Kind = OutcomeGuestWin
		outcome.WinnerID = match.GuestID
	default:
		outcome.Kind = OutcomeDraw
	}

	return outcome
}

// buildSettlement translates a match outcome into the credit movement the
// credits service applies. Draws and voids refund both holds.
func buildSettlement(match Match, outcome MatchOutcome) credits.DuelSettlement {
	settlement := credits.DuelSettlement{
		MatchID:     match.ID,
		HostID:      match.HostID,
		GuestID:     match.GuestID,
		HostHoldID:  match.HostHoldID,
		GuestHoldID: match.GuestHoldID,
		EntryFee:    match.EntryFee,
	}

	switch outcome.Kind {
	case OutcomeDraw, OutcomeVoid:
		settlement.Refund = true
	default:
		settlement.WinnerID = outcome.WinnerID
		settlement.WinnerPayout = payoutFor(match.EntryFee)
		settlement.Rake = rakeFor(match.EntryFee)
	}

	return settlement
}
