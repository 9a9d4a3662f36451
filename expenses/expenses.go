package expenses

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"tabiji/mirror"
	"tabiji/models"
	"tabiji/rates"
	"tabiji/store"
	"tabiji/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type Handlers struct {
	store   store.Adapter
	mirror  *mirror.Mirror[models.Expense]
	fetcher *rates.Fetcher
}

func NewHandlers(st store.Adapter, m *mirror.Mirror[models.Expense], f *rates.Fetcher) *Handlers {
	return &Handlers{store: st, mirror: m, fetcher: f}
}

// Draft is the expense form payload. AmountYen is the line total.
type Draft struct {
	Title     string  `json:"title"`
	AmountYen float64 `json:"amountYen"`
	Category  string  `json:"category"`
	Payer     string  `json:"payer"`
	Date      string  `json:"date"`
	Quantity  int     `json:"quantity"`
}

func (d *Draft) validate() string {
	if d.Title == "" {
		return "title is required"
	}
	if d.AmountYen < 0 {
		return "amount must not be negative"
	}
	if d.Quantity < 1 {
		d.Quantity = 1
	}
	if d.Category == "" {
		d.Category = "other"
	}
	if d.Payer == "" {
		d.Payer = "shared"
	}
	if d.Date == "" {
		d.Date = utils.Today()
	} else if _, err := time.Parse("2006-01-02", d.Date); err != nil {
		return "date must be YYYY-MM-DD"
	}
	return ""
}

// SortLedger orders expenses date-descending, ties by arrival order.
func SortLedger(items []models.Expense) []models.Expense {
	out := append([]models.Expense(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// GET /api/expenses?view=trash
func (h *Handlers) GetExpenses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items := h.mirror.Current()
	if r.URL.Query().Get("view") == "trash" {
		utils.RespondWithJSON(w, http.StatusOK, models.Trashed(items))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, SortLedger(models.Active(items)))
}

// GET /api/expenses/totals - grand total plus per-payer and per-category
// breakdowns, converted at the current rate.
func (h *Handlers) GetTotals(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	active := models.Active(h.mirror.Current())

	var total float64
	byPayer := map[string]float64{}
	byCategory := map[string]float64{}
	for _, e := range active {
		total += e.AmountYen
		byPayer[e.Payer] += e.AmountYen
		byCategory[e.Category] += e.AmountYen
	}

	rate, fetchedAt := h.fetcher.Current()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"totalYen":       total,
		"byPayer":        byPayer,
		"byCategory":     byCategory,
		"rate":           rate,
		"currency":       h.fetcher.Currency,
		"totalConverted": total * rate,
		"rateFetchedAt":  fetchedAt,
	})
}

// POST /api/expenses
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var draft Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := draft.validate(); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	expense := models.Expense{
		ExpenseID: utils.NewID(),
		Title:     draft.Title,
		AmountYen: draft.AmountYen,
		Category:  draft.Category,
		Payer:     draft.Payer,
		Date:      draft.Date,
		Quantity:  draft.Quantity,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.SetDocument(ctx, models.ColExpenses, expense.ExpenseID, expense); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error saving expense")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, expense)
}

// PUT /api/expenses/:id
//
// Edits apply to the expense record only. A shopping-generated expense
// keeps its back-link on the shopping side untouched; sync runs from the
// shopping item to the expense, not the other way.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if _, ok := h.mirror.Get(id); !ok {
		utils.RespondWithError(w, http.StatusNotFound, "expense not found")
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	fields := bson.M{
		"title":     draft.Title,
		"amountYen": draft.AmountYen,
		"category":  draft.Category,
		"payer":     draft.Payer,
		"date":      draft.Date,
		"quantity":  draft.Quantity,
	}
	if err := h.store.UpdateDocument(ctx, models.ColExpenses, id, fields); err != nil {
		utils.RespondWithError(w, store.StatusFor(err), "error updating expense")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
