package binning

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDays(t *testing.T) {
	tests := []struct {
		days int
		want DaysBucket
	}{
		{days: -1, want: DaysNotAvail},
		{days: 1, want: Days1To14},
		{days: 14, want: Days1To14},
		{days: 15, want: Days15To25},
		{days: 25, want: Days15To25},
		{days: 26, want: Days26To29},
		{days: 29, want: Days26To29},
		{days: 30, want: Days30},
		{days: 31, want: Days31To35},
		{days: 35, want: Days31To35},
		{days: 36, want: Days36To43},
		{days: 43, want: Days36To43},
		{days: 44, want: DaysNotAvail},
		{days: 120, want: DaysNotAvail},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Days(tt.days), "days=%d", tt.days)
	}
}

func TestDays_TotalOverTermRange(t *testing.T) {
	valid := map[DaysBucket]bool{}
	for _, l := range DaysRule.Labels() {
		valid[l] = true
	}

	for d := 1; d <= 43; d++ {
		got := Days(d)
		assert.True(t, valid[got], "days=%d mapped to %q", d, got)
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   AmountBucket
	}{
		{amount: "10", want: Amount50},
		{amount: "50", want: Amount50},
		{amount: "50.5", want: AmountNotAvail},
		{amount: "51", want: Amount51To99},
		{amount: "99", want: Amount51To99},
		{amount: "99.5", want: AmountNotAvail},
		{amount: "100", want: Amount100To101},
		{amount: "101", want: Amount100To101},
		{amount: "101.5", want: AmountNotAvail},
		{amount: "102", want: Amount102To199},
		{amount: "199", want: Amount102To199},
		{amount: "199.99", want: AmountNotAvail},
		{amount: "200", want: Amount200To300},
		{amount: "300", want: Amount200To300},
		{amount: "301", want: AmountNotAvail},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, Amount(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestNetworkTools(t *testing.T) {
	assert.Equal(t, NetworkTools0, NetworkTools(0))
	assert.Equal(t, NetworkTools0, NetworkTools(-2))
	assert.Equal(t, NetworkTools1, NetworkTools(1))
	assert.Equal(t, NetworkTools2, NetworkTools(2))
	assert.Equal(t, NetworkTools3, NetworkTools(3))
	assert.Equal(t, NetworkTools4To8, NetworkTools(4))
	assert.Equal(t, NetworkTools4To8, NetworkTools(8))
	assert.Equal(t, NetworkToolsNotAvail, NetworkTools(9))
}

func TestCommercial(t *testing.T) {
	assert.Equal(t, Commercial0, Commercial(0))
	assert.Equal(t, Commercial3, Commercial(3))
	assert.Equal(t, Commercial4To6, Commercial(6))
	assert.Equal(t, CommercialNotAvail, Commercial(7))
}

func TestRule_FirstMatchWins(t *testing.T) {
	overlapping := NewRule("overlap", DaysNotAvail,
		Bin[int, DaysBucket]{Label: Days1To14, Match: intAtMost(20)},
		Bin[int, DaysBucket]{Label: Days15To25, Match: intBetween(15, 25)},
	)

	assert.Equal(t, Days1To14, overlapping.Assign(16))
	assert.Equal(t, Days15To25, overlapping.Assign(21))
	assert.Equal(t, DaysNotAvail, overlapping.Assign(26))
	assert.Equal(t, "overlap", overlapping.Name())
	assert.Equal(t, DaysNotAvail, overlapping.Fallback())
}
