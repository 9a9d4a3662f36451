// Package link keeps a shopping item and its generated expense record
// consistent. Every transition maps to one atomic batch; propagation runs
// from the shopping side to the expense side.
package link

import (
	"context"
	"fmt"
	"log"

	"tabiji/mirror"
	"tabiji/models"
	"tabiji/store"
	"tabiji/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// DefaultPayer goes on expenses generated from the shopping list when the
// caller names nobody.
const DefaultPayer = "shared"

// Manager drives the shopping↔expense transitions.
type Manager struct {
	store    store.Adapter
	shopping *mirror.Mirror[models.ShoppingItem]
	expenses *mirror.Mirror[models.Expense]
}

func NewManager(st store.Adapter, shopping *mirror.Mirror[models.ShoppingItem], expenses *mirror.Mirror[models.Expense]) *Manager {
	return &Manager{store: st, shopping: shopping, expenses: expenses}
}

func (m *Manager) item(id string) (models.ShoppingItem, error) {
	item, ok := m.shopping.Get(id)
	if !ok {
		return models.ShoppingItem{}, fmt.Errorf("shopping item %s not found", id)
	}
	return item, nil
}

// linkedExpense resolves the expense side of a link. A dangling reference
// (expense purged out of band) comes back as ok=false and is tolerated:
// the shopping-side write proceeds and the link is cleared.
func (m *Manager) linkedExpense(item models.ShoppingItem) (models.Expense, bool) {
	if item.LinkedExpenseID == "" {
		return models.Expense{}, false
	}
	exp, ok := m.expenses.Get(item.LinkedExpenseID)
	if !ok {
		log.Printf("link: expense %s for shopping item %s is gone, clearing link",
			item.LinkedExpenseID, item.ShoppingID)
	}
	return exp, ok
}

// MarkBought flips bought on and creates the matching shopping expense in
// the same batch. Already-bought items are a no-op.
func (m *Manager) MarkBought(ctx context.Context, id, payer string) (string, error) {
	item, err := m.item(id)
	if err != nil {
		return "", err
	}
	if item.Bought {
		return item.LinkedExpenseID, nil
	}
	if payer == "" {
		payer = DefaultPayer
	}

	qty := item.Quantity
	if qty < 1 {
		qty = 1
	}

	expense := models.Expense{
		ExpenseID: utils.NewID(),
		Title:     item.Name,
		AmountYen: item.PriceYen * float64(qty),
		Category:  models.ExpenseCategoryShopping,
		Payer:     payer,
		Date:      utils.Today(),
		Quantity:  qty,
	}

	batch := m.store.Batch()
	batch.Set(models.ColExpenses, expense.ExpenseID, expense)
	batch.Update(models.ColShopping, id, bson.M{
		"bought":          true,
		"linkedExpenseId": expense.ExpenseID,
	})
	if err := batch.Commit(ctx); err != nil {
		return "", err
	}
	return expense.ExpenseID, nil
}

// MarkNotBought flips bought off and deletes the linked expense in the
// same batch.
func (m *Manager) MarkNotBought(ctx context.Context, id string) error {
	item, err := m.item(id)
	if err != nil {
		return err
	}
	if !item.Bought {
		return nil
	}

	batch := m.store.Batch()
	if _, ok := m.linkedExpense(item); ok {
		batch.Delete(models.ColExpenses, item.LinkedExpenseID)
	}
	batch.Update(models.ColShopping, id, bson.M{
		"bought":          false,
		"linkedExpenseId": "",
	})
	return batch.Commit(ctx)
}

// SetQuantity adjusts an item's quantity. On a bought item the linked
// expense follows in the same batch: quantity mirrors, amount recomputes
// from the unit price.
func (m *Manager) SetQuantity(ctx context.Context, id string, qty int) error {
	item, err := m.item(id)
	if err != nil {
		return err
	}
	return m.setPriceQty(ctx, item, item.PriceYen, qty)
}

// SetUnitPrice changes the unit price. On a bought item the linked
// expense's amount recomputes from the new price in the same batch, so
// amountYen stays priceYen*quantity.
func (m *Manager) SetUnitPrice(ctx context.Context, id string, priceYen float64) error {
	item, err := m.item(id)
	if err != nil {
		return err
	}
	return m.setPriceQty(ctx, item, priceYen, item.Quantity)
}

// SetPriceAndQuantity applies a combined unit-price and quantity edit as
// one transition. Both fields land in a single batch and the expense
// amount is computed from the values being written, never read back, so
// a combined edit cannot pair a new quantity with a stale price.
func (m *Manager) SetPriceAndQuantity(ctx context.Context, id string, priceYen float64, qty int) error {
	item, err := m.item(id)
	if err != nil {
		return err
	}
	return m.setPriceQty(ctx, item, priceYen, qty)
}

func (m *Manager) setPriceQty(ctx context.Context, item models.ShoppingItem, priceYen float64, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if priceYen < 0 {
		priceYen = 0
	}

	fields := bson.M{"priceYen": priceYen, "quantity": qty}
	if !item.Bought || item.LinkedExpenseID == "" {
		return m.store.UpdateDocument(ctx, models.ColShopping, item.ShoppingID, fields)
	}

	batch := m.store.Batch()
	if _, ok := m.linkedExpense(item); ok {
		batch.Update(models.ColExpenses, item.LinkedExpenseID, bson.M{
			"quantity":  qty,
			"amountYen": priceYen * float64(qty),
		})
	} else {
		fields["linkedExpenseId"] = ""
	}
	batch.Update(models.ColShopping, item.ShoppingID, fields)
	return batch.Commit(ctx)
}

// SoftDelete trashes the item and its linked expense together.
func (m *Manager) SoftDelete(ctx context.Context, id string) error {
	return m.setDeleted(ctx, id, true)
}

// Restore untrashes the item and its linked expense together.
func (m *Manager) Restore(ctx context.Context, id string) error {
	return m.setDeleted(ctx, id, false)
}

func (m *Manager) setDeleted(ctx context.Context, id string, deleted bool) error {
	item, err := m.item(id)
	if err != nil {
		return err
	}

	fields := bson.M{"deleted": deleted}
	batch := m.store.Batch()
	if _, ok := m.linkedExpense(item); ok {
		batch.Update(models.ColExpenses, item.LinkedExpenseID, bson.M{"deleted": deleted})
	} else if item.LinkedExpenseID != "" {
		fields["linkedExpenseId"] = ""
	}
	batch.Update(models.ColShopping, id, fields)
	return batch.Commit(ctx)
}

// Purge permanently destroys the item and its linked expense together.
// Irreversible; only reachable from the trash view.
func (m *Manager) Purge(ctx context.Context, id string) error {
	item, err := m.item(id)
	if err != nil {
		return err
	}

	batch := m.store.Batch()
	batch.Delete(models.ColShopping, id)
	if _, ok := m.linkedExpense(item); ok {
		batch.Delete(models.ColExpenses, item.LinkedExpenseID)
	}
	return batch.Commit(ctx)
}
