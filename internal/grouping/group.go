// Package grouping derives the category → requirement → product hierarchy and
// its rollup totals from a flat set of line items. Group is a pure function:
// identical input always yields identical output, including ordering, so the
// UI and the PDF export render the same structure.
package grouping

import (
	"sort"

	"github.com/stevnathans/hustlecare-sub000/internal/cart"
)

type RequirementGroup struct {
	Name  string          `json:"name"`
	Items []cart.LineItem `json:"items"`
}

type CategoryGroup struct {
	Name         string             `json:"name"`
	Subtotal     float64            `json:"subtotal"`
	TotalItems   int                `json:"totalItems"`
	Requirements []RequirementGroup `json:"requirements"`
}

// CategoryOrder is the single ordering policy for category display. Categories
// on the priority list come first, in list order; anything else follows,
// alphabetical among themselves.
type CategoryOrder struct {
	priority map[string]int
}

func NewCategoryOrder(names ...string) CategoryOrder {
	p := make(map[string]int, len(names))
	for i, n := range names {
		p[n] = i
	}
	return CategoryOrder{priority: p}
}

// DefaultCategoryOrder matches the order requirement categories appear on a
// business plan page.
var DefaultCategoryOrder = NewCategoryOrder(
	"Legal",
	"Equipment",
	"Software",
	"Documents",
	"Branding",
	"Operating Expenses",
	cart.UncategorizedLabel,
)

func (o CategoryOrder) Less(a, b string) bool {
	pa, knownA := o.priority[a]
	pb, knownB := o.priority[b]
	switch {
	case knownA && knownB:
		return pa < pb
	case knownA:
		return true
	case knownB:
		return false
	default:
		return a < b
	}
}

// Group buckets items by category, then by requirement, and computes per
// category rollups. See GroupWith for the ordering rules.
func Group(items []cart.LineItem) []CategoryGroup {
	return GroupWith(DefaultCategoryOrder, items)
}

func GroupWith(order CategoryOrder, items []cart.LineItem) []CategoryGroup {
	byCategory := make(map[string]map[string][]cart.LineItem)
	for _, it := range items {
		category := it.CategoryLabel()
		requirement := it.RequirementLabel()
		if byCategory[category] == nil {
			byCategory[category] = make(map[string][]cart.LineItem)
		}
		byCategory[category][requirement] = append(byCategory[category][requirement], it)
	}

	categories := make([]string, 0, len(byCategory))
	for name := range byCategory {
		categories = append(categories, name)
	}
	sort.Slice(categories, func(i, j int) bool { return order.Less(categories[i], categories[j]) })

	groups := make([]CategoryGroup, 0, len(categories))
	for _, category := range categories {
		byRequirement := byCategory[category]

		requirements := make([]string, 0, len(byRequirement))
		for name := range byRequirement {
			requirements = append(requirements, name)
		}
		sort.Strings(requirements)

		group := CategoryGroup{Name: category}
		for _, requirement := range requirements {
			bucket := byRequirement[requirement]
			sort.Slice(bucket, func(i, j int) bool { return bucket[i].ProductID < bucket[j].ProductID })

			for _, it := range bucket {
				group.Subtotal += float64(it.Quantity) * it.Price
				group.TotalItems += it.Quantity
			}
			group.Requirements = append(group.Requirements, RequirementGroup{Name: requirement, Items: bucket})
		}
		groups = append(groups, group)
	}

	return groups
}

// HasCategorized reports whether any item carries an explicit category. The
// export layout falls back to a flat table when none does.
func HasCategorized(items []cart.LineItem) bool {
	for _, it := range items {
		if it.Category != "" {
			return true
		}
	}
	return false
}
