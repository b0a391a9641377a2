package snapshot

import (
	"fmt"
	"strings"
	"time"

	"github.com/stevnathans/hustlecare-sub000/internal/cart"
)

// SharedList is a frozen copy of a cart, addressable by an opaque id. Once
// saved it is never mutated server-side; shared-view edits stay local to the
// viewer.
type SharedList struct {
	ID           string          `json:"listId"`
	Name         string          `json:"name"`
	BusinessName string          `json:"businessName,omitempty"`
	Items        []cart.LineItem `json:"items"`
	TotalCost    float64         `json:"totalCost"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ResolveName applies the default list name when the caller left it blank.
func ResolveName(requested, businessName string) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	return fmt.Sprintf("My %s List", businessName)
}

// PreviewItems applies ephemeral quantity overrides to a copy of the snapshot
// items. An override of zero or less drops the line. The snapshot itself is
// never touched, so a reload always shows the frozen quantities.
func PreviewItems(list *SharedList, overrides map[int64]int) []cart.LineItem {
	items := make([]cart.LineItem, 0, len(list.Items))
	for _, it := range list.Items {
		if qty, ok := overrides[it.ProductID]; ok {
			if qty <= 0 {
				continue
			}
			it.Quantity = qty
		}
		items = append(items, it)
	}
	return items
}
