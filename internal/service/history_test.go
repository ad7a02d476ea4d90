package service

import (
	"context"
	"testing"
	"time"

	"shoptrack/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newHistoryFixture(t *testing.T) (*gorm.DB, *HistoryService, *model.User) {
	t.Helper()
	db := newTestDB(t)
	return db, NewHistoryService(db), seedUser(t, db, "alice")
}

func mustRecord(t *testing.T, svc *HistoryService, userID uint, in CreateTransactionInput) *model.History {
	t.Helper()
	h, err := svc.Create(context.Background(), userID, in)
	require.NoError(t, err)
	return h
}

func TestCreateTransaction(t *testing.T) {
	db, svc, user := newHistoryFixture(t)
	ctx := context.Background()

	h := mustRecord(t, svc, user.ID, CreateTransactionInput{
		ProductName: "lumber",
		PriceCents:  250,
		Quantity:    4,
		Action:      model.ActionBuy,
	})
	require.NotEmpty(t, h.EventID)
	require.Nil(t, h.ProductID)

	// 引用不存在的商品直接拒绝
	missing := uint(9999)
	_, err := svc.Create(ctx, user.ID, CreateTransactionInput{
		ProductID:   &missing,
		ProductName: "ghost",
		PriceCents:  100,
		Quantity:    1,
		Action:      model.ActionSell,
	})
	require.ErrorIs(t, err, ErrNotFound)

	// 引用存在的商品则落库
	products := NewProductService(db, nil, nil, 0)
	p, err := products.Create(ctx, user.ID, CreateProductInput{Name: "widget", PriceCents: 100})
	require.NoError(t, err)
	h2 := mustRecord(t, svc, user.ID, CreateTransactionInput{
		ProductID:   &p.ID,
		ProductName: p.Name,
		PriceCents:  100,
		Quantity:    2,
		Action:      model.ActionBuy,
	})
	require.NotNil(t, h2.ProductID)
	require.Equal(t, p.ID, *h2.ProductID)
}

func TestCreateTransactionValidation(t *testing.T) {
	_, svc, user := newHistoryFixture(t)
	ctx := context.Background()

	cases := []CreateTransactionInput{
		{ProductName: "", PriceCents: 100, Quantity: 1, Action: model.ActionBuy},
		{ProductName: "x", PriceCents: 0, Quantity: 1, Action: model.ActionBuy},
		{ProductName: "x", PriceCents: 100, Quantity: 0, Action: model.ActionBuy},
		{ProductName: "x", PriceCents: 100, Quantity: 1, Action: "hold"},
	}
	for _, in := range cases {
		_, err := svc.Create(ctx, user.ID, in)
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	db, svc, alice := newHistoryFixture(t)
	bob := seedUser(t, db, "bob")
	ctx := context.Background()

	h := mustRecord(t, svc, alice.ID, CreateTransactionInput{
		ProductName: "lumber", PriceCents: 250, Quantity: 4, Action: model.ActionBuy,
	})

	newPrice := int64(300)
	updated, err := svc.Update(ctx, alice.ID, h.ID, UpdateTransactionInput{PriceCents: &newPrice})
	require.NoError(t, err)
	require.EqualValues(t, 300, updated.PriceCents)
	require.EqualValues(t, 4, updated.Quantity) // 未提供的字段不动

	badQty := int64(0)
	_, err = svc.Update(ctx, alice.ID, h.ID, UpdateTransactionInput{Quantity: &badQty})
	require.ErrorIs(t, err, ErrValidation)

	// 别人的台账摸不到
	_, err = svc.Update(ctx, bob.ID, h.ID, UpdateTransactionInput{PriceCents: &newPrice})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, bob.ID, h.ID), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, alice.ID, h.ID))
	_, err = svc.Get(ctx, alice.ID, h.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryFilters(t *testing.T) {
	_, svc, user := newHistoryFixture(t)
	ctx := context.Background()

	mustRecord(t, svc, user.ID, CreateTransactionInput{ProductName: "Blue Widget", PriceCents: 500, Quantity: 2, Action: model.ActionBuy})
	mustRecord(t, svc, user.ID, CreateTransactionInput{ProductName: "Red Gadget", PriceCents: 1500, Quantity: 1, Action: model.ActionSell})
	mustRecord(t, svc, user.ID, CreateTransactionInput{ProductName: "Blue Gadget", PriceCents: 800, Quantity: 3, Action: model.ActionBuy})

	buys, err := svc.ListByAction(ctx, user.ID, model.ActionBuy)
	require.NoError(t, err)
	require.Len(t, buys, 2)
	_, err = svc.ListByAction(ctx, user.ID, "hold")
	require.ErrorIs(t, err, ErrValidation)

	found, err := svc.Search(ctx, user.ID, "blue")
	require.NoError(t, err)
	require.Len(t, found, 2)
	_, err = svc.Search(ctx, user.ID, "  ")
	require.ErrorIs(t, err, ErrValidation)

	mid, err := svc.PriceRange(ctx, user.ID, 600, 2000)
	require.NoError(t, err)
	require.Len(t, mid, 2)
	_, err = svc.PriceRange(ctx, user.ID, 2000, 600)
	require.ErrorIs(t, err, ErrValidation)

	recent, err := svc.Recent(ctx, user.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	now := time.Now().UTC()
	all, err := svc.DateRange(ctx, user.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 3)
	_, err = svc.DateRange(ctx, user.ID, now.Add(time.Hour), now)
	require.ErrorIs(t, err, ErrValidation)
}

func TestProductHistoryScopedToOwner(t *testing.T) {
	db, svc, alice := newHistoryFixture(t)
	bob := seedUser(t, db, "bob")
	ctx := context.Background()

	products := NewProductService(db, nil, nil, 0)
	p, err := products.Create(ctx, alice.ID, CreateProductInput{Name: "widget", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	// 属主能看到开账行
	rows, err := svc.ListByProduct(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// 别人按同一个商品 id 查，什么都看不到
	rows, err = svc.ListByProduct(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	require.Empty(t, rows)

	sum, err := svc.ProductSummary(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	require.Zero(t, sum.TotalTransactions)
	require.Zero(t, sum.TotalBought)
}

func TestSummariesUseExactCents(t *testing.T) {
	db, svc, user := newHistoryFixture(t)
	ctx := context.Background()

	products := NewProductService(db, nil, nil, 0)
	p, err := products.Create(ctx, user.ID, CreateProductInput{Name: "widget", PriceCents: 333})
	require.NoError(t, err)

	mustRecord(t, svc, user.ID, CreateTransactionInput{ProductID: &p.ID, ProductName: p.Name, PriceCents: 333, Quantity: 3, Action: model.ActionBuy})
	mustRecord(t, svc, user.ID, CreateTransactionInput{ProductID: &p.ID, ProductName: p.Name, PriceCents: 400, Quantity: 2, Action: model.ActionSell})

	sum, err := svc.UserSummary(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, sum.TotalBought)
	require.EqualValues(t, 2, sum.TotalSold)
	require.EqualValues(t, 999, sum.TotalSpentCents)
	require.EqualValues(t, 800, sum.TotalEarnedCents)
	require.EqualValues(t, 1, sum.NetQuantity)
	require.EqualValues(t, -199, sum.NetAmountCents)

	ps, err := svc.ProductSummary(ctx, user.ID, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, ps.TotalTransactions)
	require.EqualValues(t, 800, ps.RevenueCents)
	require.EqualValues(t, 1, ps.NetQuantity)

	st, err := svc.Stats(ctx, &user.ID, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, st.TotalTransactions)
	require.EqualValues(t, 1, st.BuyTransactions)
	require.EqualValues(t, 1, st.SellTransactions)
	require.EqualValues(t, 5, st.TotalVolume)
	require.EqualValues(t, 999+800, st.TotalValueCents)
}
