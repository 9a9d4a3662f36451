package link

import (
	"context"
	"testing"

	"tabiji/mirror"
	"tabiji/models"
	"tabiji/store"
)

func setup(t *testing.T) (*store.Memory, *mirror.Mirror[models.ShoppingItem], *mirror.Mirror[models.Expense], *Manager) {
	t.Helper()
	mem := store.NewMemory()

	shopping := mirror.New[models.ShoppingItem](mem, models.ColShopping)
	expenses := mirror.New[models.Expense](mem, models.ColExpenses)
	if err := shopping.Start(); err != nil {
		t.Fatalf("start shopping mirror: %v", err)
	}
	if err := expenses.Start(); err != nil {
		t.Fatalf("start expense mirror: %v", err)
	}
	t.Cleanup(shopping.Close)
	t.Cleanup(expenses.Close)

	return mem, shopping, expenses, NewManager(mem, shopping, expenses)
}

func addItem(t *testing.T, mem *store.Memory, item models.ShoppingItem) {
	t.Helper()
	if err := mem.SetDocument(context.Background(), models.ColShopping, item.ShoppingID, item); err != nil {
		t.Fatalf("set shopping item: %v", err)
	}
}

func TestMarkBoughtCreatesLinkedExpense(t *testing.T) {
	mem, shopping, expenses, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{ShoppingID: "s1", Name: "Matcha KitKat", PriceYen: 500, Quantity: 2})

	expenseID, err := mgr.MarkBought(context.Background(), "s1", "")
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}

	item, ok := shopping.Get("s1")
	if !ok {
		t.Fatal("shopping item vanished")
	}
	if !item.Bought || item.LinkedExpenseID != expenseID {
		t.Fatalf("expected bought item linked to %s, got %+v", expenseID, item)
	}

	expense, ok := expenses.Get(expenseID)
	if !ok {
		t.Fatal("linked expense not created")
	}
	if expense.Category != models.ExpenseCategoryShopping {
		t.Fatalf("expected shopping category, got %s", expense.Category)
	}
	if expense.AmountYen != 1000 {
		t.Fatalf("expected amount 1000 (unit 500 x 2), got %v", expense.AmountYen)
	}
	if expense.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", expense.Quantity)
	}
	if expense.Title != "Matcha KitKat" {
		t.Fatalf("expected title carried over, got %s", expense.Title)
	}
}

func TestMarkNotBoughtRemovesLinkedExpense(t *testing.T) {
	mem, shopping, expenses, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{ShoppingID: "s1", Name: "Matcha KitKat", PriceYen: 500, Quantity: 2})
	ctx := context.Background()

	expenseID, err := mgr.MarkBought(ctx, "s1", "")
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}
	if err := mgr.MarkNotBought(ctx, "s1"); err != nil {
		t.Fatalf("mark not bought: %v", err)
	}

	if _, ok := expenses.Get(expenseID); ok {
		t.Fatal("expected linked expense deleted")
	}
	item, _ := shopping.Get("s1")
	if item.Bought || item.LinkedExpenseID != "" {
		t.Fatalf("expected unlinked unbought item, got %+v", item)
	}
}

func TestQuantityChangePropagates(t *testing.T) {
	mem, shopping, expenses, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{ShoppingID: "s1", Name: "Sake cup", PriceYen: 1200, Quantity: 1})
	ctx := context.Background()

	expenseID, err := mgr.MarkBought(ctx, "s1", "")
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}

	if err := mgr.SetQuantity(ctx, "s1", 3); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	expense, _ := expenses.Get(expenseID)
	if expense.Quantity != 3 || expense.AmountYen != 3600 {
		t.Fatalf("expected qty 3 / amount 3600, got %+v", expense)
	}
	item, _ := shopping.Get("s1")
	if item.Quantity != 3 {
		t.Fatalf("expected shopping quantity 3, got %d", item.Quantity)
	}

	// Round trip back restores the original amount.
	if err := mgr.SetQuantity(ctx, "s1", 1); err != nil {
		t.Fatalf("set quantity back: %v", err)
	}
	expense, _ = expenses.Get(expenseID)
	if expense.Quantity != 1 || expense.AmountYen != 1200 {
		t.Fatalf("expected qty 1 / amount 1200, got %+v", expense)
	}
}

func TestSetUnitPriceRecomputesAmount(t *testing.T) {
	mem, _, expenses, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{ShoppingID: "s1", Name: "Yukata", PriceYen: 4000, Quantity: 2})
	ctx := context.Background()

	expenseID, err := mgr.MarkBought(ctx, "s1", "")
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}
	if err := mgr.SetUnitPrice(ctx, "s1", 3500); err != nil {
		t.Fatalf("set unit price: %v", err)
	}

	expense, _ := expenses.Get(expenseID)
	if expense.AmountYen != 7000 {
		t.Fatalf("expected amount 7000 (unit 3500 x 2), got %v", expense.AmountYen)
	}
}

func TestCombinedPriceQuantityEditStaysConsistent(t *testing.T) {
	mem, shopping, expenses, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{ShoppingID: "s1", Name: "Tea set", PriceYen: 4000, Quantity: 2})
	ctx := context.Background()

	expenseID, err := mgr.MarkBought(ctx, "s1", "")
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}

	// Freeze the shopping view at its pre-edit state, the way a live
	// adapter lags between a write and its change echo. The edit must
	// still compute the amount from the values being written.
	shopping.Close()

	if err := mgr.SetPriceAndQuantity(ctx, "s1", 3500, 3); err != nil {
		t.Fatalf("set price and quantity: %v", err)
	}

	expense, _ := expenses.Get(expenseID)
	if expense.AmountYen != 10500 || expense.Quantity != 3 {
		t.Fatalf("expected amount 10500 / qty 3 (unit 3500 x 3), got %+v", expense)
	}

	var item models.ShoppingItem
	if err := mem.GetDocument(ctx, models.ColShopping, "s1", &item); err != nil {
		t.Fatalf("get shopping item: %v", err)
	}
	if item.PriceYen != 3500 || item.Quantity != 3 {
		t.Fatalf("expected unit 3500 / qty 3 written, got %+v", item)
	}
	if total := item.PriceYen * float64(item.Quantity); total != expense.AmountYen {
		t.Fatalf("link inconsistent: expense amount %v, item total %v", expense.AmountYen, total)
	}
}

func TestSoftDeleteRestoreCascade(t *testing.T) {
	mem, shopping, expenses, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{ShoppingID: "s1", Name: "Furoshiki", PriceYen: 800, Quantity: 1})
	ctx := context.Background()

	expenseID, err := mgr.MarkBought(ctx, "s1", "")
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}

	if err := mgr.SoftDelete(ctx, "s1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	item, _ := shopping.Get("s1")
	expense, _ := expenses.Get(expenseID)
	if !item.Deleted || !expense.Deleted {
		t.Fatalf("expected both sides trashed, got item=%+v expense=%+v", item, expense)
	}

	if err := mgr.Restore(ctx, "s1"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	item, _ = shopping.Get("s1")
	expense, _ = expenses.Get(expenseID)
	if item.Deleted || expense.Deleted {
		t.Fatalf("expected both sides restored, got item=%+v expense=%+v", item, expense)
	}
}

func TestPurgeRemovesBothSides(t *testing.T) {
	mem, shopping, expenses, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{ShoppingID: "s1", Name: "Omamori", PriceYen: 600, Quantity: 1})
	ctx := context.Background()

	expenseID, err := mgr.MarkBought(ctx, "s1", "")
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}
	if err := mgr.Purge(ctx, "s1"); err != nil {
		t.Fatalf("purge: %v", err)
	}

	if _, ok := shopping.Get("s1"); ok {
		t.Fatal("expected shopping item purged")
	}
	if _, ok := expenses.Get(expenseID); ok {
		t.Fatal("expected linked expense purged")
	}
}

func TestDanglingLinkSelfHeals(t *testing.T) {
	mem, shopping, _, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{
		ShoppingID:      "s1",
		Name:            "Chopsticks",
		PriceYen:        900,
		Quantity:        1,
		Bought:          true,
		LinkedExpenseID: "exp-gone",
	})

	if err := mgr.SetQuantity(context.Background(), "s1", 2); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	item, _ := shopping.Get("s1")
	if item.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", item.Quantity)
	}
	if item.LinkedExpenseID != "" {
		t.Fatalf("expected dangling link cleared, got %q", item.LinkedExpenseID)
	}
}

func TestSoftDeleteClearsDanglingLink(t *testing.T) {
	mem, shopping, _, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{
		ShoppingID:      "s1",
		Name:            "Incense",
		PriceYen:        700,
		Quantity:        1,
		Bought:          true,
		LinkedExpenseID: "exp-gone",
	})

	if err := mgr.SoftDelete(context.Background(), "s1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	item, _ := shopping.Get("s1")
	if !item.Deleted {
		t.Fatal("expected item trashed")
	}
	if item.LinkedExpenseID != "" {
		t.Fatalf("expected dangling link cleared, got %q", item.LinkedExpenseID)
	}
}

func TestDefaultPayerOnGeneratedExpense(t *testing.T) {
	mem, _, expenses, mgr := setup(t)
	addItem(t, mem, models.ShoppingItem{ShoppingID: "s1", Name: "Stamps", PriceYen: 120, Quantity: 5})

	expenseID, err := mgr.MarkBought(context.Background(), "s1", "")
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}
	expense, _ := expenses.Get(expenseID)
	if expense.Payer != DefaultPayer {
		t.Fatalf("expected payer %q, got %q", DefaultPayer, expense.Payer)
	}
}
