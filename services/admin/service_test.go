package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionImportValidate(t *testing.T) {
	valid := QuestionImport{
		Text:         "Which planet is closest to the sun?",
		Options:      []string{"Mercury", "Venus", "Earth", "Mars"},
		CorrectIndex: 0,
		Category:     "science",
	}
	assert.NoError(t, valid.validate())

	missingText := valid
	missingText.Text = ""
	assert.ErrorIs(t, missingText.validate(), ErrInvalidQuestion)

	threeOptions := valid
	threeOptions.Options = []string{"Mercury", "Venus", "Earth"}
	assert.ErrorIs(t, threeOptions.validate(), ErrInvalidQuestion)

	emptyOption := valid
	emptyOption.Options = []string{"Mercury", "", "Earth", "Mars"}
	assert.ErrorIs(t, emptyOption.validate(), ErrInvalidQuestion)

	outOfRange := valid
	outOfRange.CorrectIndex = 4
	assert.ErrorIs(t, outOfRange.validate(), ErrInvalidQuestion)

	negativeIndex := valid
	negativeIndex.CorrectIndex = -1
	assert.ErrorIs(t, negativeIndex.validate(), ErrInvalidQuestion)
}

func TestTickerImportValidate(t *testing.T) {
	assert.NoError(t, TickerImport{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology"}.validate())
	assert.NoError(t, TickerImport{Ticker: "BRK.B"}.validate())

	assert.ErrorIs(t, TickerImport{Name: "No Symbol Corp"}.validate(), ErrInvalidTicker)
	assert.ErrorIs(t, TickerImport{Ticker: "aapl"}.validate(), ErrInvalidTicker)
}
