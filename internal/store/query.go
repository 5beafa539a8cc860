package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderByPrice       = "price"
	orderBySold        = "sold_quantity"
	orderByLastUpdated = "last_updated"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByPrice:       "price ASC",
	orderBySold:        "sold_quantity DESC",
	orderByLastUpdated: "last_updated DESC",
}

const defaultOrderBy = "last_updated DESC"

const baseListingsSelect = `SELECT id, user_id, item_id, title, category_id,
	price, currency_id, available_quantity, sold_quantity,
	listing_type_id, status, COALESCE(permalink, ''), COALESCE(thumbnail, ''),
	last_updated
FROM listings`

const countListingsSelect = "SELECT COUNT(*) FROM listings"

const baseSalesSelect = `SELECT id, user_id, sale_id, sale_date, COALESCE(shipping_status, ''),
	quantity, total_amount,
	publication_id, publication_title, unit_price,
	COALESCE(buyer_nickname, ''),
	COALESCE(shipping_address, ''), COALESCE(shipping_city, ''), COALESCE(shipping_state, ''),
	COALESCE(shipping_country, ''), COALESCE(shipping_zip, ''),
	updated_at
FROM sales`

const countSalesSelect = "SELECT COUNT(*) FROM sales"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a listing query.
// It returns two SQL strings (one for the data query, one for the count query)
// and the positional parameters. UserID is always the first condition.
func (q *ListingQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	conditions := []string{"user_id = $1"}
	args = append(args, q.UserID)
	paramIdx := 2

	if q.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", paramIdx))
		args = append(args, *q.Status)
		paramIdx++
	}

	if q.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", paramIdx))
		args = append(args, *q.CategoryID)
		paramIdx++
	}

	if q.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", paramIdx))
		args = append(args, *q.MinPrice)
		paramIdx++
	}

	if q.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", paramIdx))
		args = append(args, *q.MaxPrice)
		paramIdx++
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	orderClause := defaultOrderBy
	if q.OrderBy != "" {
		if col, ok := validOrderBy[q.OrderBy]; ok {
			orderClause = col
		}
	}

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

// ToSQL builds the data and count queries for a sale query. Results are
// always ordered newest sale first.
func (q *SaleQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	conditions := []string{"user_id = $1"}
	args = append(args, q.UserID)
	paramIdx := 2

	if q.From != nil {
		conditions = append(conditions, fmt.Sprintf("sale_date >= $%d", paramIdx))
		args = append(args, *q.From)
		paramIdx++
	}

	if q.To != nil {
		conditions = append(conditions, fmt.Sprintf("sale_date <= $%d", paramIdx))
		args = append(args, *q.To)
		paramIdx++
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY sale_date DESC LIMIT %d OFFSET %d",
		baseSalesSelect, whereClause, limit, offset,
	)

	countSQL = countSalesSelect + whereClause

	return dataSQL, countSQL, args
}
