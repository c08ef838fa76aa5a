package petition

import "github.com/sujalbistaa/petitions/internal/models"

// Paginate returns petitions[startIndex:startIndex+count] clipped to the
// available length. An out of range start yields an empty page. Callers
// reject negative values before getting here.
func Paginate(petitions []models.Petition, startIndex, count int) []models.Petition {
	if startIndex < 0 || count <= 0 || startIndex >= len(petitions) {
		return []models.Petition{}
	}
	end := len(petitions)
	if count < end-startIndex {
		end = startIndex + count
	}
	return petitions[startIndex:end:end]
}
