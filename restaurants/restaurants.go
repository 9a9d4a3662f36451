package restaurants

import (
	"context"
	"encoding/json"
	"net/http"
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
	mirror   *mirror.Mirror[models.Restaurant]
	resolver *geo.Resolver
}

func NewHandlers(st store.Adapter, m *mirror.Mirror[models.Restaurant], r *geo.Resolver) *Handlers {
	return &Handlers{store: st, mirror: m, resolver: r}
}

// Draft is the restaurant form payload. Tags arrive comma-separated.
type Draft struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	ImageURL    string  `json:"imageUrl"`
	MapsURL     string  `json:"mapsUrl"`
	Tags        string  `json:"tags"`
}

func (d *Draft) validate() string {
	if d.Name == "" {
		return "name is required"
	}
	if d.Rating == 0 {
		d.Rating = 3.0
	}
	if d.Rating < 1.0 || d.Rating > 5.0 {
		return "rating must be between 1.0 and 5.0"
	}
	return ""
}

// GET /api/restaurants?view=trash
func (h *Handlers) GetRestaurants(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items := h.mirror.Current()
	if r.URL.Query().Get("view") == "trash" {
		utils.RespondWithJSON(w, http.StatusOK, models.Trashed(items))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.Active(items))
}

// POST /api/restaurants
func (h *Handlers) CreateRestaurant(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	restaurant := models.Restaurant{
		RestaurantID: utils.NewID(),
		Name:         draft.Name,
		Description:  draft.Description,
		Rating:       draft.Rating,
		ImageURL:     draft.ImageURL,
		MapsURL:      draft.MapsURL,
		Tags:         utils.SplitTags(draft.Tags),
	}
	if p := h.resolver.Resolve(ctx, draft.MapsURL, draft.Name); p != nil {
		restaurant.Lat, restaurant.Lng = &p.Lat, &p.Lng
	}

	if err := h.store.SetDocument(ctx, models.ColRestaurants, restaurant.RestaurantID, restaurant); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error saving restaurant")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, restaurant)
}

// PUT /api/restaurants/:id
func (h *Handlers) UpdateRestaurant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	existing, ok := h.mirror.Get(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "restaurant not found")
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
		"name":        draft.Name,
		"description": draft.Description,
		"rating":      draft.Rating,
		"imageUrl":    draft.ImageURL,
		"mapsUrl":     draft.MapsURL,
		"tags":        utils.SplitTags(draft.Tags),
	}
	if draft.MapsURL != existing.MapsURL || draft.Name != existing.Name {
		if p := h.resolver.Resolve(ctx, draft.MapsURL, draft.Name); p != nil {
			fields["lat"], fields["lng"] = p.Lat, p.Lng
		} else {
			fields["lat"], fields["lng"] = nil, nil
		}
	}

	if err := h.store.UpdateDocument(ctx, models.ColRestaurants, id, fields); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error updating restaurant")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
