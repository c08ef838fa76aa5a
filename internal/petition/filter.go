package petition

import (
	"slices"
	"strings"

	"github.com/sujalbistaa/petitions/internal/models"
)

// Criteria narrows a petition listing. A nil pointer means the criterion is
// unset, so a zero value is never confused with "no filter".
type Criteria struct {
	Q              *string
	SupportingCost *int
	OwnerID        *uint
	SupporterID    *uint
	CategoryIDs    []uint
}

// IsEmpty reports whether no criterion is active.
func (c Criteria) IsEmpty() bool {
	return c.Q == nil && c.SupportingCost == nil && c.OwnerID == nil &&
		c.SupporterID == nil && len(c.CategoryIDs) == 0
}

// Filter keeps the petitions matching every active criterion, in input order.
// With no active criterion the input slice is returned as is.
func Filter(petitions []models.Petition, c Criteria) []models.Petition {
	if c.IsEmpty() {
		return petitions
	}
	m := newMatcher(c)
	kept := make([]models.Petition, 0, len(petitions))
	for _, p := range petitions {
		if m.match(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

type matcher struct {
	Criteria
	q string
}

func newMatcher(c Criteria) matcher {
	m := matcher{Criteria: c}
	if c.Q != nil {
		m.q = strings.ToLower(*c.Q)
	}
	return m
}

func (m matcher) match(p models.Petition) bool {
	if m.Q != nil &&
		!strings.Contains(strings.ToLower(p.Title), m.q) &&
		!strings.Contains(strings.ToLower(p.Description), m.q) {
		return false
	}
	if m.SupportingCost != nil && !hasTierWithin(p, *m.SupportingCost) {
		return false
	}
	if m.OwnerID != nil && p.OwnerID != *m.OwnerID {
		return false
	}
	if m.SupporterID != nil && !hasSupporter(p, *m.SupporterID) {
		return false
	}
	if len(m.CategoryIDs) > 0 && !slices.Contains(m.CategoryIDs, p.CategoryID) {
		return false
	}
	return true
}

// hasTierWithin reports whether any tier of p costs at most ceiling.
func hasTierWithin(p models.Petition, ceiling int) bool {
	return slices.ContainsFunc(p.SupportTiers, func(t models.SupportTier) bool {
		return t.Cost <= ceiling
	})
}

func hasSupporter(p models.Petition, userID uint) bool {
	for _, tier := range p.SupportTiers {
		for _, s := range tier.Supporters {
			if s.UserID == userID {
				return true
			}
		}
	}
	return false
}
