package petition

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sujalbistaa/petitions/internal/models"
)

// SortKey selects the ordering of a petition listing.
type SortKey string

const (
	AlphabeticalAsc  SortKey = "ALPHABETICAL_ASC"
	AlphabeticalDesc SortKey = "ALPHABETICAL_DESC"
	CostAsc          SortKey = "COST_ASC"
	CostDesc         SortKey = "COST_DESC"
	CreatedAsc       SortKey = "CREATED_ASC"
	CreatedDesc      SortKey = "CREATED_DESC"

	DefaultSortKey = CreatedAsc
)

// ErrInvalidSortKey is returned for an unrecognised sort key.
var ErrInvalidSortKey = errors.New("invalid sort key")

type comparator func(a, b models.Petition) int

// comparators build a fresh comparator per Sort. A collate.Collator is not
// safe for concurrent use.
var comparators = map[SortKey]func() comparator{
	AlphabeticalAsc:  func() comparator { return byTitle(false) },
	AlphabeticalDesc: func() comparator { return byTitle(true) },
	CostAsc: func() comparator {
		return func(a, b models.Petition) int { return cmp.Compare(a.SupportingCost, b.SupportingCost) }
	},
	CostDesc: func() comparator {
		return func(a, b models.Petition) int { return cmp.Compare(b.SupportingCost, a.SupportingCost) }
	},
	CreatedAsc: func() comparator {
		return func(a, b models.Petition) int { return a.CreationDate.Compare(b.CreationDate) }
	},
	CreatedDesc: func() comparator {
		return func(a, b models.Petition) int { return b.CreationDate.Compare(a.CreationDate) }
	},
}

// byTitle orders titles by the root collation: case and accents only break
// ties between otherwise equal letters.
func byTitle(desc bool) comparator {
	col := collate.New(language.Und)
	return func(a, b models.Petition) int {
		if desc {
			return col.CompareString(b.Title, a.Title)
		}
		return col.CompareString(a.Title, b.Title)
	}
}

// ParseSortKey validates a raw sortBy value. The empty string selects
// DefaultSortKey.
func ParseSortKey(raw string) (SortKey, error) {
	if raw == "" {
		return DefaultSortKey, nil
	}
	key := SortKey(raw)
	if _, ok := comparators[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, raw)
	}
	return key, nil
}

// Sort returns a sorted copy of petitions. Ties on the sort key are broken by
// ascending petition id, whatever the direction of the key.
func Sort(petitions []models.Petition, key SortKey) ([]models.Petition, error) {
	newComparator, ok := comparators[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortKey, string(key))
	}
	compare := newComparator()
	sorted := slices.Clone(petitions)
	slices.SortStableFunc(sorted, func(a, b models.Petition) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return sorted, nil
}
