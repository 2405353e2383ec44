// Package presence scores a user's digital footprint from the platform
// indicators returned by the identity-data provider.
package presence

// Group names a family of platform indicators.
type Group string

const (
	GroupCommunication Group = "communication"
	GroupCommercial    Group = "commercial"
	GroupIdentity      Group = "identity"
	GroupNetworkTools  Group = "network_tools"
)

// Indicators maps an indicator column to its value. Missing columns count as 0.
type Indicators map[string]float64

// Spec partitions indicator columns into weighted groups. The trust list is
// the set of columns that contribute to the score; members that belong to no
// group weigh zero.
type Spec struct {
	groups  map[Group][]string
	trust   []string
	weights map[Group]float64

	columnWeight map[string]float64
}

// NewSpec builds a Spec and resolves the per-column weights once. A column
// listed in several groups takes the weight of the first group in
// communication, commercial, identity, network-tools order.
func NewSpec(groups map[Group][]string, trust []string, weights map[Group]float64) *Spec {
	s := &Spec{
		groups:       make(map[Group][]string, len(groups)),
		trust:        append([]string(nil), trust...),
		weights:      make(map[Group]float64, len(weights)),
		columnWeight: make(map[string]float64, len(trust)),
	}
	for g, cols := range groups {
		s.groups[g] = append([]string(nil), cols...)
	}
	for g, w := range weights {
		s.weights[g] = w
	}

	order := []Group{GroupCommunication, GroupCommercial, GroupIdentity, GroupNetworkTools}
	for _, col := range s.trust {
		weight := 0.0
		for _, g := range order {
			if contains(s.groups[g], col) {
				weight = s.weights[g]
				break
			}
		}
		s.columnWeight[col] = weight
	}
	return s
}

// DefaultSpec returns the production indicator partition.
func DefaultSpec() *Spec {
	return NewSpec(
		map[Group][]string{
			GroupCommunication: {
				"phone_has_whatsapp", "phone_has_instagram",
				"phone_has_telegram", "phone_has_twitter", "phone_has_weibo",
				"email_has_pinterest",
			},
			GroupCommercial: {
				"phone_has_aliexpress", "email_has_spotify", "email_has_deliveroo",
				"email_has_disney_plus", "email_has_duolingo", "has_amazon",
			},
			GroupIdentity: {
				"email_has_gravatar", "email_has_google",
				"has_facebook", "has_apple",
			},
			GroupNetworkTools: {
				"email_has_linkedin", "email_has_wordpress", "email_has_hubspot",
				"email_has_atlassian", "email_has_adobe", "email_has_freelancer",
				"email_has_github", "has_office365",
			},
		},
		[]string{
			"phone_has_whatsapp", "phone_has_instagram", "phone_has_aliexpress",
			"phone_has_telegram", "phone_has_twitter", "phone_has_weibo",
			"email_has_spotify", "email_has_linkedin", "email_has_deliveroo",
			"email_has_pinterest", "email_has_wordpress", "email_has_hubspot",
			"email_has_gravatar", "email_has_atlassian", "email_has_lastpass",
			"email_has_adobe", "email_has_freelancer", "email_has_github",
			"email_has_disney_plus", "email_has_google", "email_has_duolingo",
			"has_facebook", "has_apple", "has_amazon", "has_office365",
		},
		map[Group]float64{
			GroupCommunication: 0.5,
			GroupCommercial:    1.0,
			GroupIdentity:      0.5,
			GroupNetworkTools:  1.1,
		},
	)
}

// Columns returns every indicator column the scorer reads.
func (s *Spec) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, c := range s.trust {
		add(c)
	}
	for _, g := range []Group{GroupCommunication, GroupCommercial, GroupIdentity, GroupNetworkTools} {
		for _, c := range s.groups[g] {
			add(c)
		}
	}
	return cols
}

// Weight returns the score weight of a trust column, 0 for anything else.
func (s *Spec) Weight(column string) float64 {
	return s.columnWeight[column]
}

// Score is the weighted sum of the trust columns.
func (s *Spec) Score(ind Indicators) float64 {
	var score float64
	for _, col := range s.trust {
		score += ind[col] * s.columnWeight[col]
	}
	return score
}

// Count sums the indicators of a group after truncating each value to an integer.
func (s *Spec) Count(ind Indicators, group Group) int {
	var n int
	for _, col := range s.groups[group] {
		n += int(ind[col])
	}
	return n
}

// NetworkToolsCount is the number of professional network tools in use.
func (s *Spec) NetworkToolsCount(ind Indicators) int {
	return s.Count(ind, GroupNetworkTools)
}

// CommercialCount is the number of commercial platforms in use.
func (s *Spec) CommercialCount(ind Indicators) int {
	return s.Count(ind, GroupCommercial)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
