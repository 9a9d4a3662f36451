package expenses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tabiji/mirror"
	"tabiji/models"
	"tabiji/rates"
	"tabiji/store"
	"tabiji/utils"
)

func TestSortLedgerNewestFirst(t *testing.T) {
	items := []models.Expense{
		{ExpenseID: "a", Date: "2026-04-02"},
		{ExpenseID: "b", Date: "2026-04-05"},
		{ExpenseID: "c", Date: "2026-04-03"},
	}
	sorted := SortLedger(items)
	for i, id := range []string{"b", "c", "a"} {
		if sorted[i].ExpenseID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, sorted[i].ExpenseID)
		}
	}
}

func TestSortLedgerSameDayKeepsArrivalOrder(t *testing.T) {
	items := []models.Expense{
		{ExpenseID: "lunch", Date: "2026-04-03"},
		{ExpenseID: "train", Date: "2026-04-03"},
		{ExpenseID: "dinner", Date: "2026-04-03"},
	}
	sorted := SortLedger(items)
	for i, id := range []string{"lunch", "train", "dinner"} {
		if sorted[i].ExpenseID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, sorted[i].ExpenseID)
		}
	}
}

func TestDraftValidateDefaults(t *testing.T) {
	d := Draft{Title: "Ramen", AmountYen: 980}
	if msg := d.validate(); msg != "" {
		t.Fatalf("unexpected error: %s", msg)
	}
	if d.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", d.Quantity)
	}
	if d.Category != "other" {
		t.Fatalf("expected default category other, got %s", d.Category)
	}
	if d.Payer != "shared" {
		t.Fatalf("expected default payer shared, got %s", d.Payer)
	}
	if d.Date != utils.Today() {
		t.Fatalf("expected today's date, got %s", d.Date)
	}
}

func TestDraftValidateRejects(t *testing.T) {
	cases := []struct {
		name  string
		draft Draft
		want  string
	}{
		{"missing title", Draft{AmountYen: 100}, "title is required"},
		{"negative amount", Draft{Title: "x", AmountYen: -1}, "amount must not be negative"},
		{"bad date", Draft{Title: "x", Date: "04/03/2026"}, "date must be YYYY-MM-DD"},
	}
	for _, tc := range cases {
		if got := tc.draft.validate(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestGetTotals(t *testing.T) {
	mem := store.NewMemory()
	m := mirror.New[models.Expense](mem, models.ColExpenses)
	if err := m.Start(); err != nil {
		t.Fatalf("start mirror: %v", err)
	}
	defer m.Close()

	seed := []models.Expense{
		{ExpenseID: "e1", Title: "Hotel", AmountYen: 12000, Category: "hotel", Payer: "alex", Date: "2026-04-01"},
		{ExpenseID: "e2", Title: "Ramen", AmountYen: 980, Category: "food", Payer: "sam", Date: "2026-04-01"},
		{ExpenseID: "e3", Title: "Ghost", AmountYen: 99999, Category: "other", Payer: "sam", Date: "2026-04-01", Deleted: true},
	}
	for _, e := range seed {
		if err := mem.SetDocument(context.Background(), models.ColExpenses, e.ExpenseID, e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	h := NewHandlers(mem, m, rates.NewFetcher())
	rec := httptest.NewRecorder()
	h.GetTotals(rec, httptest.NewRequest(http.MethodGet, "/api/expenses/totals", nil), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		TotalYen   float64            `json:"totalYen"`
		ByPayer    map[string]float64 `json:"byPayer"`
		ByCategory map[string]float64 `json:"byCategory"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalYen != 12980 {
		t.Fatalf("expected trashed expense excluded from total, got %v", body.TotalYen)
	}
	if body.ByPayer["alex"] != 12000 || body.ByPayer["sam"] != 980 {
		t.Fatalf("unexpected payer breakdown: %v", body.ByPayer)
	}
	if body.ByCategory["hotel"] != 12000 || body.ByCategory["food"] != 980 {
		t.Fatalf("unexpected category breakdown: %v", body.ByCategory)
	}
}
