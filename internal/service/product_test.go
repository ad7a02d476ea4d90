package service

import (
	"context"
	"testing"

	"shoptrack/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func historyFor(t *testing.T, db *gorm.DB, productID uint) []model.History {
	t.Helper()
	var out []model.History
	require.NoError(t, db.Where("product_id = ?", productID).Order("id").Find(&out).Error)
	return out
}

func TestCreateProductWritesOpeningLedger(t *testing.T) {
	db := newTestDB(t)
	sink := &captureSink{}
	svc := NewProductService(db, nil, sink, 0)
	owner := seedUser(t, db, "alice")
	ctx := context.Background()

	p, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "widget", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)
	require.EqualValues(t, 5, p.Stock)

	rows := historyFor(t, db, p.ID)
	require.Len(t, rows, 1)
	require.Equal(t, model.ActionBuy, rows[0].Action)
	require.EqualValues(t, 5, rows[0].Quantity)
	require.EqualValues(t, 1000, rows[0].PriceCents)
	require.Equal(t, owner.ID, rows[0].UserID)

	// 开账事件也发了出去
	require.Len(t, sink.events, 1)
	require.Equal(t, rows[0].EventID, sink.events[0].EventID)

	// 零库存创建不记台账
	p2, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "empty", PriceCents: 100})
	require.NoError(t, err)
	require.Empty(t, historyFor(t, db, p2.ID))
}

func TestCreateProductValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil, nil, 0)
	owner := seedUser(t, db, "alice")
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "", PriceCents: 100})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, owner.ID, CreateProductInput{Name: "x", PriceCents: 0})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, owner.ID, CreateProductInput{Name: "x", PriceCents: 100, Stock: -1})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil, nil, 0)
	owner := seedUser(t, db, "alice")
	ctx := context.Background()

	p, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "widget", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	updated, err := svc.AddStock(ctx, owner.ID, p.ID, 3)
	require.NoError(t, err)
	require.EqualValues(t, 8, updated.Stock)

	rows := historyFor(t, db, p.ID)
	require.Len(t, rows, 2) // 开账 + 本次入库
	last := rows[len(rows)-1]
	require.Equal(t, model.ActionBuy, last.Action)
	require.EqualValues(t, 3, last.Quantity)

	_, err = svc.AddStock(ctx, owner.ID, p.ID, 0)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.AddStock(ctx, owner.ID, p.ID, -2)
	require.ErrorIs(t, err, ErrValidation)
}

func TestRemoveStockInsufficient(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil, nil, 0)
	owner := seedUser(t, db, "alice")
	ctx := context.Background()

	p, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "widget", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)
	_, err = svc.AddStock(ctx, owner.ID, p.ID, 3)
	require.NoError(t, err)

	// 超量出库：失败且不留任何写入
	before := len(historyFor(t, db, p.ID))
	_, err = svc.RemoveStock(ctx, owner.ID, p.ID, 10)
	require.ErrorIs(t, err, ErrInsufficientStock)

	cur, err := svc.Get(ctx, owner.ID, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 8, cur.Stock)
	require.Len(t, historyFor(t, db, p.ID), before)

	// 正常出库
	updated, err := svc.RemoveStock(ctx, owner.ID, p.ID, 8)
	require.NoError(t, err)
	require.EqualValues(t, 0, updated.Stock)
	rows := historyFor(t, db, p.ID)
	require.Equal(t, model.ActionSell, rows[len(rows)-1].Action)
	require.EqualValues(t, 8, rows[len(rows)-1].Quantity)
}

func TestSetStockDelta(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil, nil, 0)
	owner := seedUser(t, db, "alice")
	ctx := context.Background()

	p, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "widget", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	// delta > 0 记 buy
	_, err = svc.SetStock(ctx, owner.ID, p.ID, 9)
	require.NoError(t, err)
	rows := historyFor(t, db, p.ID)
	require.Equal(t, model.ActionBuy, rows[len(rows)-1].Action)
	require.EqualValues(t, 4, rows[len(rows)-1].Quantity)

	// delta < 0 记 sell，数量取绝对值
	_, err = svc.SetStock(ctx, owner.ID, p.ID, 2)
	require.NoError(t, err)
	rows = historyFor(t, db, p.ID)
	require.Equal(t, model.ActionSell, rows[len(rows)-1].Action)
	require.EqualValues(t, 7, rows[len(rows)-1].Quantity)

	// delta == 0 不记台账
	before := len(rows)
	updated, err := svc.SetStock(ctx, owner.ID, p.ID, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, updated.Stock)
	require.Len(t, historyFor(t, db, p.ID), before)

	_, err = svc.SetStock(ctx, owner.ID, p.ID, -1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestOwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil, nil, 0)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	ctx := context.Background()

	pa, err := svc.Create(ctx, alice.ID, CreateProductInput{Name: "alice's", PriceCents: 100, Stock: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob.ID, CreateProductInput{Name: "bob's", PriceCents: 100, Stock: 1})
	require.NoError(t, err)

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "alice's", list[0].Name)

	// 别人的商品对我而言就是不存在
	_, err = svc.Get(ctx, bob.ID, pa.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AddStock(ctx, bob.ID, pa.ID, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProductKeepsLedger(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil, nil, 0)
	owner := seedUser(t, db, "alice")
	ctx := context.Background()

	p, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "widget", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner.ID, p.ID))

	// 台账行保留，外键置空，冗余名不变
	var rows []model.History
	require.NoError(t, db.Where("user_id = ?", owner.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].ProductID)
	require.Equal(t, "widget", rows[0].ProductName)

	require.ErrorIs(t, svc.Delete(ctx, owner.ID, p.ID), ErrNotFound)
}

func TestSearchAndLowStockAndPriceRange(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil, nil, 0)
	owner := seedUser(t, db, "alice")
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "Blue Widget", PriceCents: 500, Stock: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner.ID, CreateProductInput{Name: "Red Gadget", PriceCents: 1500, Stock: 50})
	require.NoError(t, err)

	found, err := svc.Search(ctx, owner.ID, "widget")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Blue Widget", found[0].Name)

	low, err := svc.LowStock(ctx, owner.ID, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, "Blue Widget", low[0].Name)

	mid, err := svc.PriceRange(ctx, owner.ID, 1000, 2000)
	require.NoError(t, err)
	require.Len(t, mid, 1)
	require.Equal(t, "Red Gadget", mid[0].Name)

	_, err = svc.PriceRange(ctx, owner.ID, 2000, 1000)
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdatePriceAndStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil, nil, 0)
	owner := seedUser(t, db, "alice")
	ctx := context.Background()

	p, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "widget", PriceCents: 1000, Stock: 4})
	require.NoError(t, err)

	updated, err := svc.UpdatePrice(ctx, owner.ID, p.ID, 2500)
	require.NoError(t, err)
	require.EqualValues(t, 2500, updated.PriceCents)

	_, err = svc.UpdatePrice(ctx, owner.ID, p.ID, 0)
	require.ErrorIs(t, err, ErrValidation)

	stats, err := svc.Stats(ctx, owner.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.TotalProducts)
	require.EqualValues(t, 4, stats.TotalStock)
	require.EqualValues(t, 4*2500, stats.TotalValueCents)
}

func TestTransferOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil, nil, 0)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	ctx := context.Background()

	p, err := svc.Create(ctx, alice.ID, CreateProductInput{Name: "widget", PriceCents: 100, Stock: 1})
	require.NoError(t, err)

	require.NoError(t, svc.TransferOwner(ctx, alice.ID, p.ID, bob.ID))

	_, err = svc.Get(ctx, alice.ID, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
	got, err := svc.Get(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	require.Equal(t, bob.ID, got.OwnerID)

	require.ErrorIs(t, svc.TransferOwner(ctx, alice.ID, p.ID, 9999), ErrNotFound)
}

func TestMutationEmitsEvents(t *testing.T) {
	db := newTestDB(t)
	sink := &captureSink{}
	svc := NewProductService(db, nil, sink, 0)
	owner := seedUser(t, db, "alice")
	ctx := context.Background()

	p, err := svc.Create(ctx, owner.ID, CreateProductInput{Name: "widget", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)
	_, err = svc.AddStock(ctx, owner.ID, p.ID, 2)
	require.NoError(t, err)
	_, err = svc.RemoveStock(ctx, owner.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = svc.SetStock(ctx, owner.ID, p.ID, 6) // delta 0：不发事件
	require.NoError(t, err)

	require.Len(t, sink.events, 3)
	require.Equal(t, model.ActionBuy, sink.events[1].Action)
	require.Equal(t, model.ActionSell, sink.events[2].Action)
	for _, ev := range sink.events {
		require.NoError(t, ev.Validate())
	}
}
