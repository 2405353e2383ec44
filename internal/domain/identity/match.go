// Package identity verifies a user's contact details against the partially
// masked emails and phones returned by the identity-data provider.
package identity

import "strings"

const (
	// Wildcard marks a redacted character in a masked contact.
	Wildcard = "*"
	// CandidateSeparator joins several masked contacts in one value.
	CandidateSeparator = ","
)

// maxEmailComponents is the number of literal fragments a masked email can
// expose: local-part prefix, domain body and domain suffix.
const maxEmailComponents = 3

// MaskedEmailMatch reports whether realEmail is consistent with maskedEmail.
//
// The masked value is split on the wildcard into literal fragments, compared
// positionally: the first against the start of the real email, the second
// against the domain (aligned on '@' when the fragment carries it, otherwise
// starting right after '@'), the third against the end. Every fragment present
// must match. Non-string inputs and masks without any literal fragment never match.
func MaskedEmailMatch(realEmail, maskedEmail any) bool {
	real, ok := realEmail.(string)
	if !ok {
		return false
	}
	masked, ok := maskedEmail.(string)
	if !ok {
		return false
	}

	real = strings.ToLower(strings.TrimSpace(real))
	masked = strings.ToLower(strings.TrimSpace(masked))

	components := emailComponents(masked)
	if len(components) == 0 {
		return false
	}

	for i, component := range components {
		var matched bool
		switch i {
		case 0:
			matched = strings.HasPrefix(real, component)
		case 1:
			matched = matchDomain(real, component)
		case 2:
			matched = strings.HasSuffix(real, component)
		}
		if !matched {
			return false
		}
	}
	return true
}

// MatchAnyMaskedEmail reports whether any comma-separated masked candidate
// matches realEmail.
func MatchAnyMaskedEmail(realEmail, candidates any) bool {
	list, ok := candidates.(string)
	if !ok {
		return false
	}
	for _, candidate := range strings.Split(list, CandidateSeparator) {
		if MaskedEmailMatch(realEmail, candidate) {
			return true
		}
	}
	return false
}

// MatchLastTwoDigits reports whether the last two characters of phone equal
// the last two characters of any comma-separated candidate. Empty candidates
// are skipped.
func MatchLastTwoDigits(phone, candidates any) bool {
	number, ok := phone.(string)
	if !ok {
		return false
	}
	list, ok := candidates.(string)
	if !ok {
		return false
	}

	want := lastTwo(strings.TrimSpace(number))
	if want == "" {
		return false
	}
	for _, candidate := range strings.Split(list, CandidateSeparator) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if lastTwo(candidate) == want {
			return true
		}
	}
	return false
}

// NamesMatch reports whether either name contains the other. Comparison is
// case-sensitive.
func NamesMatch(a, b string) bool {
	return strings.Contains(b, a) || strings.Contains(a, b)
}

func emailComponents(masked string) []string {
	parts := strings.Split(masked, Wildcard)
	components := make([]string, 0, maxEmailComponents)
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		components = append(components, p)
		if len(components) == maxEmailComponents {
			break
		}
	}
	return components
}

func matchDomain(real, component string) bool {
	at := strings.IndexByte(real, '@')
	if at < 0 {
		return false
	}

	start := at + 1
	if idx := strings.IndexByte(component, '@'); idx >= 0 {
		start = at - idx
	}
	if start < 0 {
		return false
	}
	return strings.HasPrefix(real[start:], component)
}

func lastTwo(s string) string {
	r := []rune(s)
	if len(r) <= 2 {
		return s
	}
	return string(r[len(r)-2:])
}
