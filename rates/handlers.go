package rates

import (
	"net/http"

	"tabiji/utils"

	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	fetcher *Fetcher
}

func NewHandlers(f *Fetcher) *Handlers {
	return &Handlers{fetcher: f}
}

// GET /api/rates
func (h *Handlers) GetRate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rate, fetchedAt := h.fetcher.Current()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"rate":      rate,
		"currency":  h.fetcher.Currency,
		"fetchedAt": fetchedAt,
		"fallback":  fetchedAt.IsZero(),
	})
}

// POST /api/rates/refresh - manual refresh; coalesced with any fetch
// already in flight.
func (h *Handlers) RefreshRate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rate := h.fetcher.Refresh(r.Context())
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"rate": rate, "currency": h.fetcher.Currency})
}
