package cart

// Fallback buckets for items that were added without a category or without a
// requirement association.
const (
	UncategorizedLabel          = "Uncategorized"
	UnspecifiedRequirementLabel = "Unspecified Requirement"
)

type LineItem struct {
	ProductID       int64   `json:"productId"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	Quantity        int     `json:"quantity"`
	Image           string  `json:"image,omitempty"`
	Category        string  `json:"category,omitempty"`
	RequirementName string  `json:"requirementName,omitempty"`
}

// CategoryLabel returns the display category, applying the fallback bucket.
func (li LineItem) CategoryLabel() string {
	if li.Category == "" {
		return UncategorizedLabel
	}
	return li.Category
}

// RequirementLabel returns the display requirement, applying the fallback bucket.
func (li LineItem) RequirementLabel() string {
	if li.RequirementName == "" {
		return UnspecifiedRequirementLabel
	}
	return li.RequirementName
}

type Cart struct {
	BusinessID   string     `json:"businessId,omitempty"`
	BusinessName string     `json:"businessName,omitempty"`
	Items        []LineItem `json:"items"`
}

func TotalCost(items []LineItem) float64 {
	total := 0.0
	for _, it := range items {
		total += float64(it.Quantity) * it.Price
	}
	return total
}

func TotalItems(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) TotalCost() float64 { return TotalCost(c.Items) }

func (c *Cart) TotalItems() int { return TotalItems(c.Items) }

// Add inserts a new item with quantity 1. Adding a product that is already in
// the cart leaves the existing line untouched, quantity and metadata included.
func (c *Cart) Add(item LineItem) {
	for _, it := range c.Items {
		if it.ProductID == item.ProductID {
			return
		}
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
}

// SetQuantity updates the quantity for a product. A quantity of zero or less
// removes the line; an unknown product is a no-op.
func (c *Cart) SetQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// Remove deletes the line for a product if present.
func (c *Cart) Remove(productID int64) {
	for i, it := range c.Items {
		if it.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// ClearCategory removes every item in the given category bucket.
func (c *Cart) ClearCategory(category string) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.CategoryLabel() != category {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

// ClearRequirement removes every item matching both the requirement and
// category buckets.
func (c *Cart) ClearRequirement(requirement, category string) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.RequirementLabel() != requirement || it.CategoryLabel() != category {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

// Clone returns a deep copy so callers can hand carts across API boundaries
// without aliasing store-owned state.
func (c *Cart) Clone() *Cart {
	cp := &Cart{BusinessID: c.BusinessID, BusinessName: c.BusinessName}
	if len(c.Items) > 0 {
		cp.Items = make([]LineItem, len(c.Items))
		copy(cp.Items, c.Items)
	}
	return cp
}
