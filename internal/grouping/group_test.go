package grouping

import (
	"reflect"
	"testing"

	"github.com/stevnathans/hustlecare-sub000/internal/cart"
)

func TestGroupTwoCategoriesWithFallback(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: 1, Name: "Register", Price: 100, Quantity: 2, Category: "Equipment"},
		{ProductID: 2, Name: "Scale", Price: 50, Quantity: 1, Category: "Equipment"},
		{ProductID: 3, Name: "Misc", Price: 30, Quantity: 3},
	}

	groups := Group(items)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "Equipment" || groups[0].Subtotal != 250 || groups[0].TotalItems != 3 {
		t.Fatalf("unexpected Equipment group: %+v", groups[0])
	}
	if groups[1].Name != cart.UncategorizedLabel || groups[1].Subtotal != 90 || groups[1].TotalItems != 3 {
		t.Fatalf("unexpected fallback group: %+v", groups[1])
	}
	if got := cart.TotalCost(items); got != 340 {
		t.Fatalf("expected total cost 340, got %v", got)
	}
}

func TestGroupTotalsMatchCartTotals(t *testing.T) {
	c := &cart.Cart{}
	assertConsistent := func() {
		t.Helper()
		groups := Group(c.Items)
		subtotal, count := 0.0, 0
		for _, g := range groups {
			subtotal += g.Subtotal
			count += g.TotalItems
		}
		if subtotal != c.TotalCost() {
			t.Fatalf("subtotal sum %v != cart total %v", subtotal, c.TotalCost())
		}
		if count != c.TotalItems() {
			t.Fatalf("item count sum %d != cart total items %d", count, c.TotalItems())
		}
	}

	assertConsistent()
	c.Add(cart.LineItem{ProductID: 1, Name: "A", Price: 19.99, Category: "Legal", RequirementName: "Business License"})
	assertConsistent()
	c.Add(cart.LineItem{ProductID: 2, Name: "B", Price: 4.5, Category: "Software"})
	assertConsistent()
	c.SetQuantity(1, 7)
	assertConsistent()
	c.Add(cart.LineItem{ProductID: 3, Name: "C", Price: 100})
	assertConsistent()
	c.SetQuantity(2, 0)
	assertConsistent()
	c.Remove(1)
	assertConsistent()
	c.ClearCategory(cart.UncategorizedLabel)
	assertConsistent()
}

func TestGroupIsDeterministic(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: 9, Name: "I", Price: 1, Quantity: 1, Category: "Zoning", RequirementName: "Permits"},
		{ProductID: 3, Name: "C", Price: 1, Quantity: 1, Category: "Equipment", RequirementName: "Oven"},
		{ProductID: 7, Name: "G", Price: 1, Quantity: 1, Category: "Equipment", RequirementName: "Oven"},
		{ProductID: 1, Name: "A", Price: 1, Quantity: 1, Category: "Equipment"},
		{ProductID: 4, Name: "D", Price: 1, Quantity: 1, Category: "Accounting"},
		{ProductID: 2, Name: "B", Price: 1, Quantity: 1},
	}

	first := Group(items)
	second := Group(items)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("grouping is not deterministic\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestGroupItemOrderWithinRequirement(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: 7, Name: "G", Price: 1, Quantity: 1, Category: "Equipment", RequirementName: "Oven"},
		{ProductID: 3, Name: "C", Price: 1, Quantity: 1, Category: "Equipment", RequirementName: "Oven"},
		{ProductID: 5, Name: "E", Price: 1, Quantity: 1, Category: "Equipment", RequirementName: "Oven"},
	}

	groups := Group(items)
	oven := groups[0].Requirements[0]
	if oven.Name != "Oven" {
		t.Fatalf("unexpected requirement %q", oven.Name)
	}
	ids := []int64{oven.Items[0].ProductID, oven.Items[1].ProductID, oven.Items[2].ProductID}
	if ids[0] != 3 || ids[1] != 5 || ids[2] != 7 {
		t.Fatalf("items not sorted by product id: %v", ids)
	}
}

func TestCategoryOrderPolicy(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: 1, Name: "A", Price: 1, Quantity: 1, Category: "Zoning"},
		{ProductID: 2, Name: "B", Price: 1, Quantity: 1, Category: "Accounting"},
		{ProductID: 3, Name: "C", Price: 1, Quantity: 1, Category: "Software"},
		{ProductID: 4, Name: "D", Price: 1, Quantity: 1, Category: "Legal"},
		{ProductID: 5, Name: "E", Price: 1, Quantity: 1},
	}

	groups := Group(items)

	got := make([]string, len(groups))
	for i, g := range groups {
		got[i] = g.Name
	}
	// Known categories in priority order, then unknown ones alphabetically.
	want := []string{"Legal", "Software", cart.UncategorizedLabel, "Accounting", "Zoning"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("category order mismatch\ngot  %v\nwant %v", got, want)
	}
}

func TestRequirementFallbackBucket(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: 1, Name: "A", Price: 1, Quantity: 1, Category: "Equipment"},
		{ProductID: 2, Name: "B", Price: 1, Quantity: 1, Category: "Equipment", RequirementName: "Oven"},
	}

	groups := Group(items)
	if len(groups[0].Requirements) != 2 {
		t.Fatalf("expected 2 requirement buckets, got %+v", groups[0].Requirements)
	}
	if groups[0].Requirements[0].Name != "Oven" || groups[0].Requirements[1].Name != cart.UnspecifiedRequirementLabel {
		t.Fatalf("unexpected requirement order: %+v", groups[0].Requirements)
	}
}

func TestGroupDoesNotMutateInput(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: 2, Name: "B", Price: 1, Quantity: 1, Category: "Equipment", RequirementName: "Oven"},
		{ProductID: 1, Name: "A", Price: 1, Quantity: 1, Category: "Equipment", RequirementName: "Oven"},
	}

	_ = Group(items)
	if items[0].ProductID != 2 || items[1].ProductID != 1 {
		t.Fatalf("input slice was reordered: %+v", items)
	}
}

func TestHasCategorized(t *testing.T) {
	if HasCategorized([]cart.LineItem{{ProductID: 1}, {ProductID: 2}}) {
		t.Fatalf("expected false for fully uncategorized items")
	}
	if !HasCategorized([]cart.LineItem{{ProductID: 1}, {ProductID: 2, Category: "Legal"}}) {
		t.Fatalf("expected true when any item has a category")
	}
}
