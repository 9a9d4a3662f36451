package shopping

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tabiji/link"
	"tabiji/mirror"
	"tabiji/models"
	"tabiji/store"
	"tabiji/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type Handlers struct {
	store  store.Adapter
	mirror *mirror.Mirror[models.ShoppingItem]
	links  *link.Manager
}

func NewHandlers(st store.Adapter, m *mirror.Mirror[models.ShoppingItem], links *link.Manager) *Handlers {
	return &Handlers{store: st, mirror: m, links: links}
}

var validFlavors = map[string]bool{
	"":                 true,
	models.FlavorSweet: true,
	models.FlavorSalty: true,
	models.FlavorMisc:  true,
}

// Draft is the shopping form payload. PriceYen is a unit price.
type Draft struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PriceYen    float64 `json:"priceYen"`
	Quantity    int     `json:"quantity"`
	ImageURL    string  `json:"imageUrl"`
	Flavor      string  `json:"flavor"`
}

func (d *Draft) validate() string {
	if d.Name == "" {
		return "name is required"
	}
	if d.PriceYen < 0 {
		return "price must not be negative"
	}
	if d.Quantity < 1 {
		d.Quantity = 1
	}
	if !validFlavors[d.Flavor] {
		return "flavor must be sweet, salty or misc"
	}
	return ""
}

// GET /api/shopping?flavor=sweet&view=trash
func (h *Handlers) GetItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items := h.mirror.Current()
	if r.URL.Query().Get("view") == "trash" {
		utils.RespondWithJSON(w, http.StatusOK, models.Trashed(items))
		return
	}

	active := models.Active(items)
	if flavor := r.URL.Query().Get("flavor"); flavor != "" {
		filtered := make([]models.ShoppingItem, 0, len(active))
		for _, item := range active {
			if item.Flavor == flavor {
				filtered = append(filtered, item)
			}
		}
		active = filtered
	}
	utils.RespondWithJSON(w, http.StatusOK, active)
}

// POST /api/shopping
func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var draft Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := draft.validate(); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	item := models.ShoppingItem{
		ShoppingID:  utils.NewID(),
		Name:        draft.Name,
		Description: draft.Description,
		PriceYen:    draft.PriceYen,
		Quantity:    draft.Quantity,
		ImageURL:    draft.ImageURL,
		Flavor:      draft.Flavor,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.SetDocument(ctx, models.ColShopping, item.ShoppingID, item); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error saving shopping item")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, item)
}

// PUT /api/shopping/:id - name/description/flavor/image edit; a price
// change on a bought item flows through the link manager so the linked
// expense keeps amountYen = priceYen * quantity.
func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	existing, ok := h.mirror.Get(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "shopping item not found")
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
		"imageUrl":    draft.ImageURL,
		"flavor":      draft.Flavor,
	}
	if err := h.store.UpdateDocument(ctx, models.ColShopping, id, fields); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error updating shopping item")
		return
	}

	// Price and quantity travel together through the link manager so the
	// linked expense is recomputed from both new values in one batch.
	if draft.PriceYen != existing.PriceYen || draft.Quantity != existing.Quantity {
		if err := h.links.SetPriceAndQuantity(ctx, id, draft.PriceYen, draft.Quantity); err != nil {
			utils.RespondWithError(w, store.StatusFor(err), "error updating price")
			return
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// POST /api/shopping/:id/bought - flips the bought state; the linked
// expense is created or removed atomically alongside.
func (h *Handlers) ToggleBought(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	item, ok := h.mirror.Get(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "shopping item not found")
		return
	}

	var body struct {
		Payer string `json:"payer"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if item.Bought {
		if err := h.links.MarkNotBought(ctx, id); err != nil {
			utils.RespondWithError(w, store.StatusFor(err), "error unmarking bought")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"bought": false})
		return
	}

	expenseID, err := h.links.MarkBought(ctx, id, body.Payer)
	if err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error marking bought")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bought": true, "linkedExpenseId": expenseID})
}

// PATCH /api/shopping/:id/quantity - the quantity stepper.
func (h *Handlers) SetQuantity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if _, ok := h.mirror.Get(id); !ok {
		utils.RespondWithError(w, http.StatusNotFound, "shopping item not found")
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.links.SetQuantity(ctx, id, body.Quantity); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error updating quantity")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
