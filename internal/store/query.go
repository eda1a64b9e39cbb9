package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderByTotal     = "total"
	orderByPrice     = "price"
	orderByFirstSeen = "first_seen_at"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByTotal:     "(scores->>'total')::float8 DESC NULLS LAST",
	orderByPrice:     "price ASC",
	orderByFirstSeen: "first_seen_at DESC",
}

const defaultOrderBy = "first_seen_at DESC"

const baseListingsSelect = `SELECT ` + listingColumns + `
FROM listings`

const countListingsSelect = "SELECT COUNT(*) FROM listings"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a listing
// query. It returns two SQL strings (one for the data query, one for the
// count query) and the positional parameters.
func (q *ListingQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.SearchID != nil {
		conditions = append(conditions, fmt.Sprintf(
			"id IN (SELECT listing_id FROM search_listings WHERE search_id = $%d)", paramIdx,
		))
		args = append(args, *q.SearchID)
		paramIdx++
	}

	if q.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", paramIdx))
		args = append(args, *q.Status)
		paramIdx++
	}

	if q.UserStatus != nil {
		conditions = append(conditions, fmt.Sprintf("user_status = $%d", paramIdx))
		args = append(args, *q.UserStatus)
		paramIdx++
	}

	if q.MinTotal != nil {
		conditions = append(conditions, fmt.Sprintf("(scores->>'total')::float8 >= $%d", paramIdx))
		args = append(args, *q.MinTotal)
		paramIdx++
	}

	if q.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", paramIdx))
		args = append(args, *q.MaxPrice)
		paramIdx++
	}

	if q.FavoritesOnly {
		conditions = append(conditions, "is_favorite = true")
	}

	if q.WithAnalysis {
		conditions = append(conditions, "analysis IS NOT NULL")
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Order by
	orderClause := defaultOrderBy
	if q.OrderBy != "" {
		if col, ok := validOrderBy[q.OrderBy]; ok {
			orderClause = col
		}
	}

	// Limit
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY %s LIMIT %d OFFSET %d",
		baseListingsSelect, whereClause, orderClause, limit, offset,
	)

	countSQL = countListingsSelect + whereClause

	return dataSQL, countSQL, args
}
