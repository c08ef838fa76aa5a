package petition

import "github.com/sujalbistaa/petitions/internal/models"

// Snapshot holds the unfiltered rows a listing is computed from.
type Snapshot struct {
	Petitions  []models.Petition
	Tiers      []models.SupportTier
	Supporters []models.Supporter
}

// Query carries the filter, ordering and paging of one listing request.
type Query struct {
	Criteria   Criteria
	SortBy     SortKey
	StartIndex int
	Count      int
}

// Page is one slice of a listing. Count is the number of petitions that
// matched the criteria before paging.
type Page struct {
	Petitions []models.Petition `json:"petitions"`
	Count     int               `json:"count"`
}

// List runs aggregation, filtering, sorting and paging over snap.
func List(snap Snapshot, q Query) (Page, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = DefaultSortKey
	}

	enriched := Aggregate(snap.Petitions, snap.Tiers, snap.Supporters)
	matched := Filter(enriched, q.Criteria)
	sorted, err := Sort(matched, sortBy)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Petitions: Paginate(sorted, q.StartIndex, q.Count),
		Count:     len(sorted),
	}, nil
}
