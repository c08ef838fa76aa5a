// Package petition turns raw petition rows into the enriched, filtered, ordered
// and paged views served by the API. Every function here is pure: inputs are
// never mutated and no state survives a call.
package petition

import (
	"github.com/sujalbistaa/petitions/internal/models"
)

// Aggregate attaches each petition's support tiers, and each tier's supporters,
// and computes the petition's supporting cost. Tiers and supporters that point
// at a record missing from the input are dropped. The result keeps the order
// of petitions.
func Aggregate(petitions []models.Petition, tiers []models.SupportTier, supporters []models.Supporter) []models.Petition {
	tiersByPetition := make(map[uint][]models.SupportTier, len(petitions))
	for _, tier := range tiers {
		tiersByPetition[tier.PetitionID] = append(tiersByPetition[tier.PetitionID], tier)
	}

	supportersByTier := make(map[uint][]models.Supporter, len(tiers))
	for _, supporter := range supporters {
		supportersByTier[supporter.SupportTierID] = append(supportersByTier[supporter.SupportTierID], supporter)
	}

	enriched := make([]models.Petition, 0, len(petitions))
	for _, p := range petitions {
		grouped := tiersByPetition[p.ID]
		p.SupportTiers = make([]models.SupportTier, 0, len(grouped))
		p.SupportingCost = 0
		for _, tier := range grouped {
			backers := supportersByTier[tier.ID]
			tier.Supporters = append(make([]models.Supporter, 0, len(backers)), backers...)
			// A tier only counts toward the total once someone has committed to it.
			if len(backers) > 0 {
				p.SupportingCost += tier.Cost
			}
			p.SupportTiers = append(p.SupportTiers, tier)
		}
		enriched = append(enriched, p)
	}
	return enriched
}
