package sightseeing

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
	mirror   *mirror.Mirror[models.SightseeingSpot]
	resolver *geo.Resolver
}

func NewHandlers(st store.Adapter, m *mirror.Mirror[models.SightseeingSpot], r *geo.Resolver) *Handlers {
	return &Handlers{store: st, mirror: m, resolver: r}
}

type Draft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	MapsURL     string `json:"mapsUrl"`
}

// GET /api/sightseeing?view=trash
func (h *Handlers) GetSpots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items := h.mirror.Current()
	if r.URL.Query().Get("view") == "trash" {
		utils.RespondWithJSON(w, http.StatusOK, models.Trashed(items))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.Active(items))
}

// POST /api/sightseeing
func (h *Handlers) CreateSpot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var draft Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if draft.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	spot := models.SightseeingSpot{
		SpotID:      utils.NewID(),
		Name:        draft.Name,
		Description: draft.Description,
		ImageURL:    draft.ImageURL,
		MapsURL:     draft.MapsURL,
	}
	if p := h.resolver.Resolve(ctx, draft.MapsURL, draft.Name); p != nil {
		spot.Lat, spot.Lng = &p.Lat, &p.Lng
	}

	if err := h.store.SetDocument(ctx, models.ColSightseeing, spot.SpotID, spot); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error saving sightseeing spot")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, spot)
}

// PUT /api/sightseeing/:id
func (h *Handlers) UpdateSpot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	existing, ok := h.mirror.Get(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "sightseeing spot not found")
		return
	}

	var draft Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if draft.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	fields := bson.M{
		"name":        draft.Name,
		"description": draft.Description,
		"imageUrl":    draft.ImageURL,
		"mapsUrl":     draft.MapsURL,
	}
	if draft.MapsURL != existing.MapsURL || draft.Name != existing.Name {
		if p := h.resolver.Resolve(ctx, draft.MapsURL, draft.Name); p != nil {
			fields["lat"], fields["lng"] = p.Lat, p.Lng
		} else {
			fields["lat"], fields["lng"] = nil, nil
		}
	}

	if err := h.store.UpdateDocument(ctx, models.ColSightseeing, id, fields); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error updating sightseeing spot")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
