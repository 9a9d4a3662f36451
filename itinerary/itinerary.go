package itinerary

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"tabiji/geo"
	"tabiji/mirror"
	"tabiji/models"
	"tabiji/store"
	"tabiji/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type Handlers struct {
	store    store.Adapter
	mirror   *mirror.Mirror[models.ItineraryItem]
	resolver *geo.Resolver
}

func NewHandlers(st store.Adapter, m *mirror.Mirror[models.ItineraryItem], r *geo.Resolver) *Handlers {
	return &Handlers{store: st, mirror: m, resolver: r}
}

var validCategories = map[string]bool{
	models.CategoryFood:        true,
	models.CategorySightseeing: true,
	models.CategoryShopping:    true,
	models.CategoryTravel:      true,
	models.CategoryHotel:       true,
	models.CategoryPrep:        true,
	models.CategoryOther:       true,
}

// Draft is the form payload for creating or editing an item. Coordinates
// are never taken from the client; Finalize derives them.
type Draft struct {
	Day      int    `json:"day"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
	ImageURL string `json:"imageUrl"`
	MapsURL  string `json:"mapsUrl"`
}

func (d *Draft) validate() string {
	if d.Location == "" {
		return "location is required"
	}
	if d.Day < 0 {
		return "day must be 0 or greater"
	}
	if d.Time != "" {
		if _, err := time.Parse("15:04", d.Time); err != nil {
			return "time must be HH:MM"
		}
	}
	if d.Category == "" {
		d.Category = models.CategoryOther
	}
	if !validCategories[d.Category] {
		return "unknown category"
	}
	return ""
}

// Finalize validates the draft and resolves coordinates from the maps URL
// or the location name. An unresolvable location is fine.
func (d *Draft) Finalize(ctx context.Context, resolver *geo.Resolver) (models.ItineraryItem, string) {
	if msg := d.validate(); msg != "" {
		return models.ItineraryItem{}, msg
	}

	item := models.ItineraryItem{
		ItemID:   utils.NewID(),
		Day:      d.Day,
		Time:     d.Time,
		Location: d.Location,
		Category: d.Category,
		Notes:    d.Notes,
		ImageURL: d.ImageURL,
		MapsURL:  d.MapsURL,
	}
	if p := resolver.Resolve(ctx, d.MapsURL, d.Location); p != nil {
		item.Lat, item.Lng = &p.Lat, &p.Lng
	}
	return item, ""
}

// SortSchedule orders items for display: day ascending, then time
// ascending with untimed items last, ties kept in arrival order.
func SortSchedule(items []models.ItineraryItem) []models.ItineraryItem {
	out := append([]models.ItineraryItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		ti, tj := out[i].Time, out[j].Time
		if (ti == "") != (tj == "") {
			return ti != ""
		}
		return ti < tj
	})
	return out
}

// GET /api/itinerary?day=N&view=trash
func (h *Handlers) GetItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items := h.mirror.Current()
	if r.URL.Query().Get("view") == "trash" {
		utils.RespondWithJSON(w, http.StatusOK, models.Trashed(items))
		return
	}

	active := SortSchedule(models.Active(items))
	if dayStr := r.URL.Query().Get("day"); dayStr != "" {
		day, err := strconv.Atoi(dayStr)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid day")
			return
		}
		filtered := make([]models.ItineraryItem, 0, len(active))
		for _, item := range active {
			if item.Day == day {
				filtered = append(filtered, item)
			}
		}
		active = filtered
	}
	utils.RespondWithJSON(w, http.StatusOK, active)
}

// POST /api/itinerary
func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var draft Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	item, msg := draft.Finalize(ctx, h.resolver)
	if msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.SetDocument(ctx, models.ColItinerary, item.ItemID, item); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error saving itinerary item")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, item)
}

// PUT /api/itinerary/:id
func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	existing, ok := h.mirror.Get(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "itinerary item not found")
		return
	}

	var draft Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := draft.validate(); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	fields := bson.M{
		"day":      draft.Day,
		"time":     draft.Time,
		"location": draft.Location,
		"category": draft.Category,
		"notes":    draft.Notes,
		"imageUrl": draft.ImageURL,
		"mapsUrl":  draft.MapsURL,
	}

	// Re-derive coordinates when the inputs they came from changed.
	if draft.MapsURL != existing.MapsURL || draft.Location != existing.Location {
		if p := h.resolver.Resolve(ctx, draft.MapsURL, draft.Location); p != nil {
			fields["lat"], fields["lng"] = p.Lat, p.Lng
		} else {
			fields["lat"], fields["lng"] = nil, nil
		}
	}

	if err := h.store.UpdateDocument(ctx, models.ColItinerary, id, fields); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error updating itinerary item")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// PATCH /api/itinerary/:id/completed - prep-list checkbox (day 0 only).
func (h *Handlers) ToggleCompleted(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	item, ok := h.mirror.Get(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "itinerary item not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.UpdateDocument(ctx, models.ColItinerary, id, bson.M{"completed": !item.Completed}); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error updating itinerary item")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"completed": !item.Completed})
}
