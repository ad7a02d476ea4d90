package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"shoptrack/internal/model"
	"shoptrack/internal/queue"
	"shoptrack/internal/store"
	cache "shoptrack/pkg/redis"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// EventSink 是库存事件的出口（Redis Stream outbox）。
// 可为 nil：事件丢给下游只是加餐，DB 事务才是账本。
type EventSink interface {
	Emit(ctx context.Context, ev queue.StockEvent) error
}

// ProductService 商品目录与库存变更编排。
// 每次库存变更 = 商品行 + 台账行，同一事务内带行锁完成。
type ProductService struct {
	db       *gorm.DB
	rdb      *rd.Client
	sink     EventSink
	cacheTTL time.Duration
}

func NewProductService(db *gorm.DB, rdb *rd.Client, sink EventSink, cacheTTL time.Duration) *ProductService {
	return &ProductService{db: db, rdb: rdb, sink: sink, cacheTTL: cacheTTL}
}

// CreateProductInput 创建商品的入参。
type CreateProductInput struct {
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int64  `json:"stock"`
	Description string `json:"description"`
}

// Create 创建商品；初始库存 > 0 时同时落一条开账 buy 台账。
func (s *ProductService) Create(ctx context.Context, ownerID uint, in CreateProductInput) (*model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	p := &model.Product{
		Name:        in.Name,
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
		Description: in.Description,
		OwnerID:     ownerID,
	}
	var opening *model.History
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := store.NewProductStore(tx).Create(p); err != nil {
			return err
		}
		if in.Stock > 0 {
			opening = ledgerRow(p, in.Stock, model.ActionBuy)
			return store.NewHistoryStore(tx).Create(opening)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, p, opening)
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, ownerID, id uint) (*model.Product, error) {
	p, found, err := store.NewProductStore(s.db.WithContext(ctx)).GetOwned(id, ownerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, ownerID uint) ([]model.Product, error) {
	return store.NewProductStore(s.db.WithContext(ctx)).ListByOwner(ownerID)
}

// UpdateProductInput 部分更新入参，nil 字段保持原值。
type UpdateProductInput struct {
	Name        *string `json:"name"`
	PriceCents  *int64  `json:"price_cents"`
	Stock       *int64  `json:"stock"`
	Description *string `json:"description"`
}

// Update 常规字段更新。注意：走这里改 stock 不产生台账，
// 需要留痕的库存变更请用 AddStock/RemoveStock/SetStock。
func (s *ProductService) Update(ctx context.Context, ownerID, id uint, in UpdateProductInput) (*model.Product, error) {
	if in.PriceCents != nil && *in.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	if in.Stock != nil && *in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}

	var p *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := store.NewProductStore(tx)
		var found bool
		var err error
		p, found, err = products.GetOwnedForUpdate(id, ownerID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: product", ErrNotFound)
		}
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.PriceCents != nil {
			p.PriceCents = *in.PriceCents
		}
		if in.Stock != nil {
			p.Stock = *in.Stock
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		return products.Update(p)
	})
	if err != nil {
		return nil, err
	}
	s.refreshStockCache(ctx, p)
	return p, nil
}

// Delete 删除商品：台账行保留、外键置空（开账决策见 DESIGN.md）。
func (s *ProductService) Delete(ctx context.Context, ownerID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := store.NewProductStore(tx)
		_, found, err := products.GetOwned(id, ownerID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: product", ErrNotFound)
		}
		return products.Delete(id)
	})
	if err != nil {
		return err
	}
	if s.rdb != nil {
		if err := cache.DropStock(ctx, s.rdb, id); err != nil {
			log.Printf("stock cache drop: %v", err)
		}
	}
	return nil
}

// AddStock 入库：stock += qty，同事务追加 buy 台账。
func (s *ProductService) AddStock(ctx context.Context, ownerID, id uint, qty int64) (*model.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	}
	return s.mutateStock(ctx, ownerID, id, func(p *model.Product) (int64, *model.History, error) {
		return p.Stock + qty, ledgerRow(p, qty, model.ActionBuy), nil
	})
}

// RemoveStock 出库：余量不足直接失败，不留任何写入。
func (s *ProductService) RemoveStock(ctx context.Context, ownerID, id uint, qty int64) (*model.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	}
	return s.mutateStock(ctx, ownerID, id, func(p *model.Product) (int64, *model.History, error) {
		if p.Stock < qty {
			return 0, nil, ErrInsufficientStock
		}
		return p.Stock - qty, ledgerRow(p, qty, model.ActionSell), nil
	})
}

// SetStock 直设库存：按差额记 buy/sell，差额为零只碰商品行不记台账。
func (s *ProductService) SetStock(ctx context.Context, ownerID, id uint, qty int64) (*model.Product, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	return s.mutateStock(ctx, ownerID, id, func(p *model.Product) (int64, *model.History, error) {
		delta := qty - p.Stock
		switch {
		case delta > 0:
			return qty, ledgerRow(p, delta, model.ActionBuy), nil
		case delta < 0:
			return qty, ledgerRow(p, -delta, model.ActionSell), nil
		default:
			return qty, nil, nil
		}
	})
}

// mutateStock 库存变更骨架：行锁读 → 计算新库存与台账行 → 同事务写两者。
// decide 返回 nil 台账表示只更新商品行。
func (s *ProductService) mutateStock(ctx context.Context, ownerID, id uint, decide func(*model.Product) (int64, *model.History, error)) (*model.Product, error) {
	var (
		p   *model.Product
		row *model.History
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := store.NewProductStore(tx)
		var found bool
		var err error
		p, found, err = products.GetOwnedForUpdate(id, ownerID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: product", ErrNotFound)
		}

		newStock, h, err := decide(p)
		if err != nil {
			return err
		}
		if err := products.UpdateStock(id, newStock); err != nil {
			return err
		}
		p.Stock = newStock
		row = h
		if row != nil {
			return store.NewHistoryStore(tx).Create(row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, p, row)
	return p, nil
}

// Search 名称子串检索。
func (s *ProductService) Search(ctx context.Context, ownerID uint, query string) ([]model.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	return store.NewProductStore(s.db.WithContext(ctx)).SearchByName(ownerID, query)
}

// LowStock 低库存清单，阈值缺省 10。
func (s *ProductService) LowStock(ctx context.Context, ownerID uint, threshold int64) ([]model.Product, error) {
	if threshold <= 0 {
		threshold = 10
	}
	return store.NewProductStore(s.db.WithContext(ctx)).LowStock(ownerID, threshold)
}

// UpdatePrice 单独改价。
func (s *ProductService) UpdatePrice(ctx context.Context, ownerID, id uint, priceCents int64) (*model.Product, error) {
	if priceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	return s.Update(ctx, ownerID, id, UpdateProductInput{PriceCents: &priceCents})
}

// PriceRange 价格区间检索。
func (s *ProductService) PriceRange(ctx context.Context, ownerID uint, minCents, maxCents int64) ([]model.Product, error) {
	if minCents < 0 || maxCents < 0 {
		return nil, fmt.Errorf("%w: prices cannot be negative", ErrValidation)
	}
	if minCents > maxCents {
		return nil, fmt.Errorf("%w: minimum price cannot be greater than maximum price", ErrValidation)
	}
	return store.NewProductStore(s.db.WithContext(ctx)).PriceRange(ownerID, minCents, maxCents)
}

// Stats 属主维度商品统计。
func (s *ProductService) Stats(ctx context.Context, ownerID uint) (store.ProductStats, error) {
	return store.NewProductStore(s.db.WithContext(ctx)).StatsByOwner(ownerID)
}

// TransferOwner 商品过户给另一个用户。
func (s *ProductService) TransferOwner(ctx context.Context, ownerID, id, newOwnerID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := store.NewUserStore(tx).Get(newOwnerID); err != nil {
			return fmt.Errorf("%w: new owner", ErrNotFound)
		}
		products := store.NewProductStore(tx)
		_, found, err := products.GetOwned(id, ownerID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: product", ErrNotFound)
		}
		return products.TransferOwner(id, newOwnerID)
	})
}

// CachedStock 低成本读缓存库存，miss 回落 DB 并回填。
func (s *ProductService) CachedStock(ctx context.Context, ownerID, id uint) (int64, error) {
	if s.rdb != nil {
		if stock, hit, err := cache.GetStock(ctx, s.rdb, id); err == nil && hit {
			return stock, nil
		}
	}
	p, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return 0, err
	}
	s.refreshStockCache(ctx, p)
	return p.Stock, nil
}

// ledgerRow 按变更时刻的商品快照生成台账行（价格取当下，不回溯）。
func ledgerRow(p *model.Product, qty int64, action model.Action) *model.History {
	pid := p.ID
	return &model.History{
		EventID:     uuid.New().String(),
		ProductID:   &pid,
		ProductName: p.Name,
		UserID:      p.OwnerID,
		PriceCents:  p.PriceCents,
		Quantity:    qty,
		Action:      action,
	}
}

// afterMutation 事务提交后的副作用：刷库存缓存 + 出站事件。
// 两者失败都只记日志，不影响已提交的账。
func (s *ProductService) afterMutation(ctx context.Context, p *model.Product, row *model.History) {
	s.refreshStockCache(ctx, p)
	if s.sink == nil || row == nil {
		return
	}
	if err := s.sink.Emit(ctx, queue.FromHistory(*row)); err != nil {
		log.Printf("stock event emit %s: %v", row.EventID, err)
	}
}

func (s *ProductService) refreshStockCache(ctx context.Context, p *model.Product) {
	if s.rdb == nil || p == nil {
		return
	}
	if err := cache.PutStock(ctx, s.rdb, p.ID, p.Stock, s.cacheTTL); err != nil {
		log.Printf("stock cache put: %v", err)
	}
}
