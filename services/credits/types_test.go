package credits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpendable(t *testing.T) {
	cases := []struct {
		account Account
		want    int64
	}{
		{Account{Balance: 100, Held: 0}, 100},
		{Account{Balance: 100, Held: 25}, 75},
		{Account{Balance: 50, Held: 50}, 0},
	}

	for _, c := range cases {
		if got := c.account.Spendable(); got != c.want {
			t.Errorf("Spendable() with balance %d held %d = %d, want %d", c.account.Balance, c.account.Held, got, c.want)
		}
	}
}

func TestValidateSettlement(t *testing.T) {
	base := DuelSettlement{
		MatchID:  "m1",
		HostID:   "host",
		GuestID:  "guest",
		EntryFee: 25,
	}

	win := base
	win.WinnerID = "host"
	win.WinnerPayout = 45
	win.Rake = 5
	assert.NoError(t, win.Validate())

	refund := base
	refund.Refund = true
	assert.NoError(t, refund.Validate())

	unbalanced := base
	unbalanced.WinnerID = "guest"
	unbalanced.WinnerPayout = 50
	unbalanced.Rake = 5
	assert.Error(t, unbalanced.Validate())

	stranger := base
	stranger.WinnerID = "somebody"
	stranger.WinnerPayout = 45
	stranger.Rake = 5
	assert.Error(t, stranger.Validate())

	negative := base
	negative.WinnerID = "host"
	negative.WinnerPayout = 55
	negative.Rake = -5
	assert.Error(t, negative.Validate())
}

func TestSeedBalance(t *testing.T) {
	assert.Equal(t, int64(StarterCredits), seedBalance("user-1"))
	assert.Equal(t, int64(0), seedBalance(HouseAccountID))
}
