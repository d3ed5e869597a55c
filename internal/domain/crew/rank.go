package crew

import (
	"fmt"
	"strings"
)

// Rank is a crew member's grade. Ranks are ordered by seniority.
type Rank int8

const (
	// RankSapeur is the lowest rank, given to newly accepted members by default.
	RankSapeur Rank = iota
	// RankCaporal is the corporal rank.
	RankCaporal
	// RankCapitaine is the captain rank.
	RankCapitaine
	// RankChef is the most senior rank.
	RankChef
)

// LowestRank is the rank assigned when accepting a registration without an explicit rank.
const LowestRank = RankSapeur

//nolint:gochecknoglobals // Lookup table for rank names.
var rankNames = [...]string{
	RankSapeur:    "Sapeur",
	RankCaporal:   "Caporal",
	RankCapitaine: "Capitaine",
	RankChef:      "Chef",
}

// Ranks returns all ranks from the lowest to the most senior.
func Ranks() []Rank {
	return []Rank{RankSapeur, RankCaporal, RankCapitaine, RankChef}
}

// Valid reports whether r is one of the known ranks.
func (r Rank) Valid() bool {
	return r >= RankSapeur && r <= RankChef
}

// String returns the rank name.
func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rank(%d)", int8(r))
	}

	return rankNames[r]
}

// Senior reports whether r is an officer rank (Capitaine or Chef).
func (r Rank) Senior() bool {
	return r >= RankCapitaine
}

// ParseRank converts a case-insensitive rank name into a Rank.
func ParseRank(s string) (Rank, error) {
	s = strings.TrimSpace(s)
	for i, name := range rankNames {
		if strings.EqualFold(name, s) {
			return Rank(i), nil
		}
	}

	return LowestRank, fmt.Errorf("%w: unknown rank %q", ErrInvalidInput, s)
}

// MarshalText encodes the rank as its name.
func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: rank %d", ErrInvalidInput, int8(r))
	}

	return []byte(r.String()), nil
}

// UnmarshalText decodes a rank name.
func (r *Rank) UnmarshalText(text []byte) error {
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}

	*r = parsed

	return nil
}
