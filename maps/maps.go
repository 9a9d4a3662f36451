// Package maps feeds the map collaborator: a list of geo-tagged points
// and a focus request channel. What the map does with them is its own
// business.
package maps

import (
	"encoding/json"
	"net/http"

	"tabiji/mirror"
	"tabiji/models"
	"tabiji/utils"
	"tabiji/websock"

	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	itinerary   *mirror.Mirror[models.ItineraryItem]
	restaurants *mirror.Mirror[models.Restaurant]
	sightseeing *mirror.Mirror[models.SightseeingSpot]
	hub         *websock.Hub
}

func NewHandlers(
	itinerary *mirror.Mirror[models.ItineraryItem],
	restaurants *mirror.Mirror[models.Restaurant],
	sightseeing *mirror.Mirror[models.SightseeingSpot],
	hub *websock.Hub,
) *Handlers {
	return &Handlers{
		itinerary:   itinerary,
		restaurants: restaurants,
		sightseeing: sightseeing,
		hub:         hub,
	}
}

// Markers collects every active record as a map point. Records without
// coordinates stay in the list with lat/lng unset; the map hides them.
func (h *Handlers) Markers() []models.Marker {
	var markers []models.Marker
	for _, item := range models.Active(h.itinerary.Current()) {
		markers = append(markers, models.Marker{
			ID: item.ItemID, Name: item.Location, Kind: "itinerary",
			Lat: item.Lat, Lng: item.Lng,
		})
	}
	for _, r := range models.Active(h.restaurants.Current()) {
		markers = append(markers, models.Marker{
			ID: r.RestaurantID, Name: r.Name, Kind: "restaurant",
			Lat: r.Lat, Lng: r.Lng,
		})
	}
	for _, s := range models.Active(h.sightseeing.Current()) {
		markers = append(markers, models.Marker{
			ID: s.SpotID, Name: s.Name, Kind: "sightseeing",
			Lat: s.Lat, Lng: s.Lng,
		})
	}
	return markers
}

// GET /api/map/markers
func (h *Handlers) GetMarkers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.Markers())
}

// POST /api/map/focus - pushes a focus request to every map client.
func (h *Handlers) Focus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var focus models.Focus
	if err := json.NewDecoder(r.Body).Decode(&focus); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	h.hub.BroadcastJSON(websock.RoomMap, utils.M{"action": "focus", "lat": focus.Lat, "lng": focus.Lng})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
