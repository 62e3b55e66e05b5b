// Package sqlxrepos implements the domain repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/trezcool/matibabu/core"
)

// orderBy renders an ORDER BY clause from orderings, falling back to the
// given default. Field names come from code, never from user input.
func orderBy(orderings []core.DBOrdering, fallback string) string {
	if len(orderings) == 0 {
		if fallback == "" {
			return ""
		}
		return " ORDER BY " + fallback
	}
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
