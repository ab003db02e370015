package cartsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kir4che/mern-ecommerce-website-sub000/models"
	"github.com/kir4che/mern-ecommerce-website-sub000/stock"
)

func bakeryProducts() map[uint]ProductInfo {
	return map[uint]ProductInfo{
		1: {ID: 1, Title: "Sourdough", Price: 100, CountInStock: 5},
		2: {ID: 2, Title: "Croissant", Price: 50, CountInStock: 10},
		3: {ID: 3, Title: "Canelé", Price: 80, CountInStock: 0},
	}
}

func TestTargetQuantityAccumulates(t *testing.T) {
	// Two adds of the same product on an empty cart end up as one summed line.
	q, err := TargetQuantity(0, 2, 10)
	require.NoError(t, err)
	q, err = TargetQuantity(q, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, q)
}

func TestTargetQuantityClampsToStock(t *testing.T) {
	q, err := TargetQuantity(4, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, q)

	_, err = TargetQuantity(0, 1, 0)
	assert.ErrorIs(t, err, stock.ErrOutOfStock)
}

func TestReconcileClampsDownOnly(t *testing.T) {
	items := []models.CartItem{
		{ProductID: 1, Quantity: 9},
		{ProductID: 2, Quantity: 2},
	}
	items[0].ID = 11
	items[1].ID = 12

	lines, adjustments := Reconcile(items, bakeryProducts())
	require.Len(t, lines, 2)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 2, lines[1].Quantity)

	require.Len(t, adjustments, 1)
	assert.Equal(t, uint(11), adjustments[0].ItemID)
	assert.Equal(t, 5, adjustments[0].Quantity)
}

func TestReconcileKeepsSoldOutLines(t *testing.T) {
	items := []models.CartItem{{ProductID: 3, Quantity: 2}}
	lines, adjustments := Reconcile(items, bakeryProducts())

	// The line stays visible with zero stock so the caller disables mutation;
	// it is never silently deleted.
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 0, lines[0].CountInStock)
	assert.Empty(t, adjustments)
}

func TestReconcileDropsVanishedProducts(t *testing.T) {
	items := []models.CartItem{{ProductID: 99, Quantity: 1}, {ProductID: 2, Quantity: 1}}
	lines, _ := Reconcile(items, bakeryProducts())
	require.Len(t, lines, 1)
	assert.Equal(t, uint(2), lines[0].ProductID)
}

func TestTotals(t *testing.T) {
	lines := []models.CartLine{
		{ProductID: 1, Quantity: 2, Price: 100},
		{ProductID: 2, Quantity: 1, Price: 50},
	}
	totalQuantity, subtotal := Totals(lines)
	assert.Equal(t, 3, totalQuantity)
	assert.Equal(t, 250, subtotal)
}

func TestMergeLocal(t *testing.T) {
	existing := []models.CartItem{{ProductID: 1, Quantity: 2}}
	existing[0].ID = 21

	incoming := []models.CartItemInput{
		{ProductID: 1, Quantity: 2}, // overlaps: quantities sum
		{ProductID: 2, Quantity: 3}, // new line
	}

	upserts := MergeLocal(existing, incoming, bakeryProducts())
	require.Len(t, upserts, 2)

	assert.Equal(t, uint(21), upserts[0].ID)
	assert.Equal(t, 4, upserts[0].Quantity)

	assert.Equal(t, uint(0), upserts[1].ID)
	assert.Equal(t, uint(2), upserts[1].ProductID)
	assert.Equal(t, 3, upserts[1].Quantity)
}

func TestMergeLocalClampsAndSkips(t *testing.T) {
	existing := []models.CartItem{{ProductID: 1, Quantity: 4}}
	existing[0].ID = 31

	incoming := []models.CartItemInput{
		{ProductID: 1, Quantity: 10}, // sum exceeds stock, clamps to 5
		{ProductID: 3, Quantity: 1},  // sold out, skipped
		{ProductID: 99, Quantity: 1}, // unknown, skipped
	}

	upserts := MergeLocal(existing, incoming, bakeryProducts())
	require.Len(t, upserts, 1)
	assert.Equal(t, 5, upserts[0].Quantity)
}
