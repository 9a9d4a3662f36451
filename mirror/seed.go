package mirror

import (
	"context"
	"log"
	"sync"
	"time"

	"tabiji/models"
	"tabiji/store"
)

// SeedGuard populates the itinerary once, when its first snapshot comes
// back empty. At most one seed attempt happens per process lifetime,
// success or failure; a failed commit is never retried, so a misconfigured
// store sees one write instead of a storm.
type SeedGuard struct {
	store store.Adapter

	mu        sync.Mutex
	attempted bool
	satisfied bool // first snapshot had content, never seed
}

// AttachSeedGuard hooks a guard onto the itinerary mirror. Call before
// Start so the first snapshot is seen.
func AttachSeedGuard(st store.Adapter, m *Mirror[models.ItineraryItem]) *SeedGuard {
	g := &SeedGuard{store: st}
	m.OnChange(g.observe)
	return g
}

func (g *SeedGuard) observe(items []models.ItineraryItem) {
	g.mu.Lock()
	if g.attempted || g.satisfied {
		g.mu.Unlock()
		return
	}
	if len(items) > 0 {
		g.satisfied = true
		g.mu.Unlock()
		return
	}
	g.attempted = true
	g.mu.Unlock()

	g.seed()
}

// Attempted reports whether a seed attempt has been made.
func (g *SeedGuard) Attempted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempted
}

func (g *SeedGuard) seed() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := g.store.Batch()
	for _, item := range SeedItems() {
		batch.Set(models.ColItinerary, item.ItemID, item)
	}
	if err := batch.Commit(ctx); err != nil {
		// Deliberately not reset: one attempt per process lifetime.
		log.Printf("itinerary seed failed: %v", err)
		return
	}
	log.Printf("itinerary seeded with %d items", len(SeedItems()))
}

// SeedItems returns the fixed starter itinerary. Ids are pre-assigned so a
// re-run overwrites in place instead of duplicating.
func SeedItems() []models.ItineraryItem {
	return []models.ItineraryItem{
		{ItemID: "seed-prep-01", Day: 0, Location: "Exchange yen", Category: models.CategoryPrep, Notes: "Cash for markets and shrines"},
		{ItemID: "seed-prep-02", Day: 0, Location: "Pick up rail pass", Category: models.CategoryPrep, Notes: "Voucher in email"},
		{ItemID: "seed-prep-03", Day: 0, Location: "Pack luggage", Category: models.CategoryPrep},
		{ItemID: "seed-d1-01", Day: 1, Time: "10:30", Location: "Arrive Haneda", Category: models.CategoryTravel},
		{ItemID: "seed-d1-02", Day: 1, Time: "14:00", Location: "Hotel check-in, Asakusa", Category: models.CategoryHotel},
		{ItemID: "seed-d1-03", Day: 1, Time: "16:00", Location: "Sensō-ji", Category: models.CategorySightseeing},
		{ItemID: "seed-d2-01", Day: 2, Time: "09:00", Location: "Tsukiji outer market", Category: models.CategoryFood},
		{ItemID: "seed-d2-02", Day: 2, Time: "13:00", Location: "Ginza shopping", Category: models.CategoryShopping},
		{ItemID: "seed-d3-01", Day: 3, Time: "08:15", Location: "Shinkansen to Kyoto", Category: models.CategoryTravel},
		{ItemID: "seed-d3-02", Day: 3, Location: "Evening walk, Gion", Category: models.CategorySightseeing},
	}
}
