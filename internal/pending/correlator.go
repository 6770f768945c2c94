package pending

import "strings"

// DefaultTokenLength keeps confirm/cancel payloads well under 64 bytes.
const DefaultTokenLength = 8

// Correlator maps pending ids to the short tokens carried in action payloads and back.
type Correlator interface {
	Token(id string) string
	Matches(id, token string) bool
}

// PrefixCorrelator uses the first Length hex characters of the id, dashes removed.
// Two pendings on one channel sharing a prefix are not told apart: the first match wins.
type PrefixCorrelator struct {
	Length int
}

func (c PrefixCorrelator) length() int {
	if c.Length <= 0 {
		return DefaultTokenLength
	}
	return c.Length
}

// Token returns the correlation token for id.
func (c PrefixCorrelator) Token(id string) string {
	compact := compactID(id)
	if n := c.length(); len(compact) > n {
		return compact[:n]
	}
	return compact
}

// Matches reports whether token refers to id.
func (c PrefixCorrelator) Matches(id, token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return false
	}
	return strings.HasPrefix(compactID(id), compactID(token))
}

func compactID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}
