package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSpec_Weights(t *testing.T) {
	spec := DefaultSpec()

	assert.Equal(t, 0.5, spec.Weight("phone_has_whatsapp"))
	assert.Equal(t, 1.0, spec.Weight("has_amazon"))
	assert.Equal(t, 0.5, spec.Weight("has_apple"))
	assert.Equal(t, 1.1, spec.Weight("email_has_github"))
	// trust member outside every group
	assert.Equal(t, 0.0, spec.Weight("email_has_lastpass"))
	assert.Equal(t, 0.0, spec.Weight("not_a_column"))
}

func TestScore(t *testing.T) {
	spec := DefaultSpec()

	tests := []struct {
		name string
		ind  Indicators
		want float64
	}{
		{name: "no indicators", ind: Indicators{}, want: 0},
		{name: "nil indicators", ind: nil, want: 0},
		{
			name: "one of each group",
			ind: Indicators{
				"phone_has_whatsapp": 1,
				"has_amazon":         1,
				"email_has_google":   1,
				"email_has_linkedin": 1,
			},
			want: 0.5 + 1.0 + 0.5 + 1.1,
		},
		{
			name: "ungrouped trust member and unknown column add nothing",
			ind: Indicators{
				"email_has_lastpass": 1,
				"has_tiktok":         1,
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, spec.Score(tt.ind), 1e-9)
		})
	}
}

func TestScore_IsLinear(t *testing.T) {
	spec := DefaultSpec()
	ind := Indicators{}
	doubled := Indicators{}
	for i, col := range spec.Columns() {
		v := float64(i % 2)
		ind[col] = v
		doubled[col] = 2 * v
	}

	assert.InDelta(t, 2*spec.Score(ind), spec.Score(doubled), 1e-9)
}

func TestCounts(t *testing.T) {
	spec := DefaultSpec()
	ind := Indicators{
		"email_has_linkedin":  1,
		"email_has_github":    1,
		"has_office365":       1,
		"email_has_spotify":   1,
		"has_amazon":          0,
		"phone_has_whatsapp":  1,
		"email_has_wordpress": 0.9,
	}

	assert.Equal(t, 3, spec.NetworkToolsCount(ind))
	assert.Equal(t, 1, spec.CommercialCount(ind))
	assert.Equal(t, 1, spec.Count(ind, GroupCommunication))
	assert.Equal(t, 0, spec.Count(Indicators{}, GroupIdentity))
	assert.Equal(t, 0, spec.Count(ind, Group("unknown")))
}

func TestNewSpec_OverlappingGroupsUseFirstGroup(t *testing.T) {
	spec := NewSpec(
		map[Group][]string{
			GroupCommercial:   {"shared"},
			GroupNetworkTools: {"shared"},
		},
		[]string{"shared"},
		map[Group]float64{GroupCommercial: 1.0, GroupNetworkTools: 1.1},
	)

	assert.Equal(t, 1.0, spec.Weight("shared"))
	assert.Equal(t, []string{"shared"}, spec.Columns())
}
