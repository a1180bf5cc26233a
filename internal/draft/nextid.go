package draft

import (
	"strconv"

	"github.com/comercio-labs/admin-console-service/internal/models"
)

// NextOrderID derives the id for a new draft: one greater than the largest
// numeric id in the collection. Non-numeric ids are skipped; an empty
// collection starts at "1".
func NextOrderID(orders []models.Order) string {
	max := 0
	for _, o := range orders {
		if n, err := strconv.Atoi(o.ID); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}
