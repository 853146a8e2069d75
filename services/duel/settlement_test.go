package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testQuestions(n int) []Question {
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{
			ID:           "q",
			Text:         "?",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 1,
		}
	}
	return questions
}

func answer(order, option int, timestamp, elapsed int64) Event {
	return Event{
		Author:        "p1",
		EventType:     EventAnswer,
		ID:            "e",
		QuestionOrder: order,
		OptionIndex:   option,
		ElapsedMs:     elapsed,
		Timestamp:     timestamp,
	}
}

func timeout(order int, timestamp int64) Event {
	return Event{
		Author:        "p1",
		EventType:     EventTimeout,
		ID:            "e",
		QuestionOrder: order,
		Timestamp:     timestamp,
	}
}

func TestEvaluatePlayerScoring(t *testing.T) {
	questions := testQuestions(QuestionsPerMatch)

	cases := []struct {
		name     string
		events   []Event
		score    int
		answered int
		flagged  bool
	}{
		{
			name: "all correct",
			events: []Event{
				answer(0, 1, 1000, 3000), answer(1, 1, 5000, 3000), answer(2, 1, 9000, 3000),
				answer(3, 1, 13000, 3000), answer(4, 1, 17000, 3000), answer(5, 1, 21000, 3000),
				answer(6, 1, 25000, 3000),
			},
			score:    7,
			answered: 7,
		},
		{
			name: "mixed answers and timeouts",
			events: []Event{
				answer(0, 1, 1000, 4000), answer(1, 0, 5000, 4000), timeout(2, 9000),
				answer(3, 1, 13000, 4000), answer(4, 3, 17000, 4000), timeout(5, 21000),
				answer(6, 1, 25000, 4000),
			},
			score:    -1, // 3 correct, 2 wrong
			answered: 5,
		},
		{
			name:   "no events at all",
			events: []Event{},
		},
		{
			name:   "only timeouts",
			events: []Event{timeout(0, 1000), timeout(1, 5000), timeout(2, 9000)},
		},
	}

	for _, c := range cases {
		result := evaluatePlayer("p1", c.events, questions)
		if result.Score != c.score {
			t.Errorf("%s: score = %d, want %d", c.name, result.Score, c.score)
		}
		if result.Answered != c.answered {
			t.Errorf("%s: answered = %d, want %d", c.name, result.Answered, c.answered)
		}
		if result.Flagged != c.flagged {
			t.Errorf("%s: flagged = %v (%v), want %v", c.name, result.Flagged, result.FlagReasons, c.flagged)
		}
	}
}

func TestEvaluatePlayerFlagsCheating(t *testing.T) {
	questions := testQuestions(QuestionsPerMatch)

	cases := []struct {
		name   string
		events []Event
	}{
		{
			name: "timestamps run backwards along the question order",
			events: []Event{
				answer(0, 1, 9000, 3000),
				answer(1, 1, 5000, 3000), // answered before question 0
			},
		},
		{
			name: "question skipped",
			events: []Event{
				answer(0, 1, 1000, 3000),
				answer(2, 1, 5000, 3000), // question 1 missing
			},
		},
		{
			name: "question answered twice",
			events: []Event{
				answer(0, 1, 1000, 3000),
				answer(0, 2, 5000, 3000),
			},
		},
		{
			name: "question outside the match",
			events: []Event{
				answer(0, 1, 1000, 3000), answer(1, 1, 2000, 3000), answer(2, 1, 3000, 3000),
				answer(3, 1, 4000, 3000), answer(4, 1, 5000, 3000), answer(5, 1, 6000, 3000),
				answer(6, 1, 7000, 3000), answer(7, 1, 8000, 3000),
			},
		},
		{
			name: "too many instant correct answers",
			events: []Event{
				answer(0, 1, 1000, 50), answer(1, 1, 2000, 40), answer(2, 1, 3000, 60),
				answer(3, 1, 4000, 3000), answer(4, 1, 5000, 3000), answer(5, 1, 6000, 3000),
				answer(6, 1, 7000, 3000), // 3 of 7 under 100ms
			},
		},
	}

	for _, c := range cases {
		result := evaluatePlayer("p1", c.events, questions)
		if !result.Flagged {
			t.Errorf("%s: expected player to be flagged", c.name)
		}
	}
}

func TestEvaluatePlayerToleratesFewFastAnswers(t *testing.T) {
	questions := testQuestions(QuestionsPerMatch)

	// 2 of 7 instant answers is under the 30% limit.
	events := []Event{
		answer(0, 1, 1000, 50), answer(1, 1, 2000, 40), answer(2, 1, 3000, 3000),
		answer(3, 1, 4000, 3000), answer(4, 1, 5000, 3000), answer(5, 1, 6000, 3000),
		answer(6, 1, 7000, 3000),
	}

	result := evaluatePlayer("p1", events, questions)
	assert.False(t, result.Flagged, "reasons: %v", result.FlagReasons)
	assert.Equal(t, 7, result.Score)
}

func TestAnsweredCount(t *testing.T) {
	answers := []AnswerRecord{
		{EventID: "e1", Author: "host", QuestionOrder: 0},
		{EventID: "e2", Author: "guest", QuestionOrder: 0},
		{EventID: "e3", Author: "host", QuestionOrder: 1},
	}

	assert.Equal(t, 2, answeredCount(answers, "host"))
	assert.Equal(t, 1, answeredCount(answers, "guest"))
	assert.Equal(t, 0, answeredCount(answers, "stranger"))
}

func TestComputeOutcome(t *testing.T) {
	questions := testQuestions(3)
	match := Match{ID: "m1", HostID: "host", GuestID: "guest", EntryFee: 25}

	correct := func(orders ...int) []Event {
		events := make([]Event, len(orders))
		for i, order := range orders {
			events[i] = answer(order, 1, int64(1000*(i+1)), 3000)
		}
		return events
	}
	cheater := []Event{
		answer(0, 1, 1000, 10), answer(1, 1, 2000, 10), answer(2, 1, 3000, 10),
	}

	cases := []struct {
		name   string
		host   []Event
		guest  []Event
		kind   string
		winner string
	}{
		{"host outscores guest", correct(0, 1, 2), correct(0), OutcomeHostWin, "host"},
		{"guest outscores host", correct(0), correct(0, 1, 2), OutcomeGuestWin, "guest"},
		{"equal scores draw", correct(0, 1), correct(0, 1), OutcomeDraw, ""},
		{"flagged host forfeits", cheater, correct(0), OutcomeGuestWin, "guest"},
		{"flagged guest forfeits", correct(0), cheater, OutcomeHostWin, "host"},
		{"both flagged voids the match", cheater, cheater, OutcomeVoid, ""},
	}

	for _, c := range cases {
		outcome := computeOutcome(match, c.host, c.guest, questions)
		if outcome.Kind != c.kind {
			t.Errorf("%s: kind = %s, want %s", c.name, outcome.Kind, c.kind)
		}
		if outcome.WinnerID != c.winner {
			t.Errorf("%s: winner = %q, want %q", c.name, outcome.WinnerID, c.winner)
		}
	}
}

func TestStakes(t *testing.T) {
	cases := []struct {
		fee    int64
		rake   int64
		payout int64
	}{
		{10, 2, 18},
		{25, 5, 45},
		{50, 10, 90},
		{100, 20, 180},
	}

	for _, c := range cases {
		if got := rakeFor(c.fee); got != c.rake {
			t.Errorf("rakeFor(%d) = %d, want %d", c.fee, got, c.rake)
		}
		if got := payoutFor(c.fee); got != c.payout {
			t.Errorf("payoutFor(%d) = %d, want %d", c.fee, got, c.payout)
		}
		if !ValidEntryFee(c.fee) {
			t.Errorf("ValidEntryFee(%d) = false, want true", c.fee)
		}
	}

	// The rake rounds up so payout plus rake always equals the pot.
	assert.Equal(t, int64(3), rakeFor(13))
	assert.Equal(t, int64(23), payoutFor(13))

	assert.False(t, ValidEntryFee(0))
	assert.False(t, ValidEntryFee(7))
	assert.False(t, ValidEntryFee(-10))
}

func TestBuildSettlement(t *testing.T) {
	match := Match{
		ID:          "m1",
		HostID:      "host",
		GuestID:     "guest",
		HostHoldID:  "hold-h",
		GuestHoldID: "hold-g",
		EntryFee:    50,
	}

	win := buildSettlement(match, MatchOutcome{Kind: OutcomeHostWin, WinnerID: "host"})
	assert.NoError(t, win.Validate())
	assert.Equal(t, "host", win.WinnerID)
	assert.Equal(t, int64(90), win.WinnerPayout)
	assert.Equal(t, int64(10), win.Rake)
	assert.False(t, win.Refund)

	draw := buildSettlement(match, MatchOutcome{Kind: OutcomeDraw})
	assert.NoError(t, draw.Validate())
	assert.True(t, draw.Refund)

	void := buildSettlement(match, MatchOutcome{Kind: OutcomeVoid})
	assert.True(t, void.Refund)
}
