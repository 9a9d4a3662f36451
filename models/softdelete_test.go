package models

import "testing"

func TestActiveTrashedPartition(t *testing.T) {
	items := []ShoppingItem{
		{ShoppingID: "a"},
		{ShoppingID: "b", Deleted: true},
		{ShoppingID: "c"},
		{ShoppingID: "d", Deleted: true},
	}

	active := Active(items)
	trashed := Trashed(items)

	if len(active)+len(trashed) != len(items) {
		t.Fatalf("partition lost items: %d active + %d trashed != %d",
			len(active), len(trashed), len(items))
	}
	for _, it := range active {
		if it.Deleted {
			t.Fatalf("trashed item %s in active view", it.ShoppingID)
		}
	}
	for _, it := range trashed {
		if !it.Deleted {
			t.Fatalf("active item %s in trash view", it.ShoppingID)
		}
	}
}

func TestActiveKeepsOrder(t *testing.T) {
	items := []Expense{
		{ExpenseID: "one"},
		{ExpenseID: "two", Deleted: true},
		{ExpenseID: "three"},
	}
	active := Active(items)
	if len(active) != 2 || active[0].ExpenseID != "one" || active[1].ExpenseID != "three" {
		t.Fatalf("unexpected active view: %+v", active)
	}
}

func TestActiveEmptyInput(t *testing.T) {
	if got := Active([]Restaurant{}); len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
	if got := Trashed([]SightseeingSpot{}); len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
}
