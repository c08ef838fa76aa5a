package http

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/petitions/internal/petition"
)

var errBadQuery = errors.New("bad query parameter")

// parseListQuery validates the listing query string. Absent parameters stay
// unset; present-but-malformed ones are rejected.
func parseListQuery(c *gin.Context, defaultCount int) (petition.Query, error) {
	q := petition.Query{Count: defaultCount}

	var err error
	if q.StartIndex, err = nonNegativeInt(c, "startIndex", 0); err != nil {
		return q, err
	}
	if q.Count, err = nonNegativeInt(c, "count", defaultCount); err != nil {
		return q, err
	}

	if raw, ok := c.GetQuery("q"); ok {
		if raw == "" {
			return q, fmt.Errorf("%w: q must not be empty", errBadQuery)
		}
		q.Criteria.Q = &raw
	}
	if raw, ok := c.GetQuery("supportingCost"); ok {
		cost, err := strconv.Atoi(raw)
		if err != nil || cost < 0 {
			return q, fmt.Errorf("%w: supportingCost must be a non-negative integer", errBadQuery)
		}
		q.Criteria.SupportingCost = &cost
	}
	if q.Criteria.OwnerID, err = optionalID(c, "ownerId"); err != nil {
		return q, err
	}
	if q.Criteria.SupporterID, err = optionalID(c, "supporterId"); err != nil {
		return q, err
	}
	for _, raw := range c.QueryArray("categoryIds") {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return q, fmt.Errorf("%w: categoryIds must be integers", errBadQuery)
		}
		q.Criteria.CategoryIDs = append(q.Criteria.CategoryIDs, uint(id))
	}

	if q.SortBy, err = petition.ParseSortKey(c.Query("sortBy")); err != nil {
		return q, err
	}
	return q, nil
}

func nonNegativeInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadQuery, name)
	}
	return n, nil
}

func optionalID(c *gin.Context, name string) (*uint, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", errBadQuery, name)
	}
	v := uint(id)
	return &v, nil
}
