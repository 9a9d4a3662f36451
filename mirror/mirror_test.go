package mirror

import (
	"context"
	"errors"
	"testing"

	"tabiji/models"
	"tabiji/store"
)

func itineraryItem(id, location string) models.ItineraryItem {
	return models.ItineraryItem{ItemID: id, Day: 1, Location: location, Category: models.CategoryOther}
}

func TestMirrorReplacesWholesale(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	if err := mem.SetDocument(ctx, models.ColItinerary, "a", itineraryItem("a", "one")); err != nil {
		t.Fatalf("set: %v", err)
	}

	m := New[models.ItineraryItem](mem, models.ColItinerary)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Close()

	if got := m.Current(); len(got) != 1 || got[0].ItemID != "a" {
		t.Fatalf("unexpected initial snapshot: %+v", got)
	}

	// A later snapshot replaces, never merges: deleting "a" and adding
	// "b" leaves exactly "b".
	if err := mem.DeleteDocument(ctx, models.ColItinerary, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mem.SetDocument(ctx, models.ColItinerary, "b", itineraryItem("b", "two")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got := m.Current()
	if len(got) != 1 || got[0].ItemID != "b" {
		t.Fatalf("expected wholesale replace to [b], got %+v", got)
	}
}

func TestMirrorArrivalOrder(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	m := New[models.ItineraryItem](mem, models.ColItinerary)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Close()

	for _, id := range []string{"z", "m", "a"} {
		if err := mem.SetDocument(ctx, models.ColItinerary, id, itineraryItem(id, id)); err != nil {
			t.Fatalf("set %s: %v", id, err)
		}
	}

	got := m.Current()
	want := []string{"z", "m", "a"}
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	for i := range want {
		if got[i].ItemID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i].ItemID)
		}
	}
}

func TestMirrorKeepsLastKnownGoodOnError(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	if err := mem.SetDocument(ctx, models.ColItinerary, "a", itineraryItem("a", "one")); err != nil {
		t.Fatalf("set: %v", err)
	}

	m := New[models.ItineraryItem](mem, models.ColItinerary)
	var seen error
	m.OnError(func(err error) { seen = err })
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Close()

	boom := errors.New("transport down")
	mem.EmitError(models.ColItinerary, boom)

	if !errors.Is(seen, boom) {
		t.Fatalf("expected forwarded error, got %v", seen)
	}
	if got := m.Current(); len(got) != 1 || got[0].ItemID != "a" {
		t.Fatalf("error must not clear mirror contents, got %+v", got)
	}
}

func TestMirrorChangeNotification(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	m := New[models.ItineraryItem](mem, models.ColItinerary)
	var calls int
	m.OnChange(func(items []models.ItineraryItem) { calls++ })
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Close()

	if calls != 1 {
		t.Fatalf("expected initial notification, got %d", calls)
	}
	if err := mem.SetDocument(ctx, models.ColItinerary, "a", itineraryItem("a", "one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected notification on write, got %d", calls)
	}
}
