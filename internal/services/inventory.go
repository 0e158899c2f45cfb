package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"coindrop/internal/models"
	"coindrop/internal/pkg/caching"

	"github.com/google/uuid"
	"github.com/samber/do"
)

// ServiceInventory owns prize items and their reservation state. A
// reserved item is simply inactive until it is either consumed for
// good or released back.
type ServiceInventory struct {
	container *do.Injector
	store     PrizeStore
	clock     Clock
	cache     caching.Cache
	locks     *locker
}

func NewServiceInventory(container *do.Injector) (*ServiceInventory, error) {
	store, err := do.Invoke[PrizeStore](container)
	if err != nil {
		return nil, err
	}

	clock, err := do.Invoke[Clock](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceInventory{
		container: container,
		store:     store,
		clock:     clock,
		cache:     cache,
		locks:     newLocker(container),
	}, nil
}

// AddPrizeItem registers a new item, active and ready to reserve.
func (service *ServiceInventory) AddPrizeItem(ctx context.Context, item *models.PrizeItem) (*models.PrizeItem, error) {
	if item.Name == "" || item.Type == "" {
		return nil, errors.New("prize item needs a name and a type")
	}

	clone := item.Clone()
	clone.ID = uuid.NewString()
	clone.Active = true
	clone.AddedAt = service.clock.Now()

	unlock := service.locks.Lock(LockKeyPrizeItem(clone.ID))
	defer unlock()

	if err := service.store.UpsertPrizeItem(ctx, clone); err != nil {
		return nil, err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyPrizeItemsByType(clone.Type))
	return clone, nil
}

// Reserve hands the item to a giveaway. Expiry is checked lazily here,
// never by a background sweep.
func (service *ServiceInventory) Reserve(ctx context.Context, itemID string) (*models.PrizeItem, error) {
	unlock := service.locks.Lock(LockKeyPrizeItem(itemID))
	defer unlock()

	item, err := service.loadItemLocked(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if !item.Active || item.Expired(service.clock.Now()) {
		return nil, ErrPrizeUnavailable
	}

	clone := item.Clone()
	clone.Active = false
	if err := service.store.UpsertPrizeItem(ctx, clone); err != nil {
		return nil, err
	}

	return clone, nil
}

// Consume retires the item permanently. Consuming an already inactive
// item is a no-op.
func (service *ServiceInventory) Consume(ctx context.Context, itemID string) error {
	unlock := service.locks.Lock(LockKeyPrizeItem(itemID))
	defer unlock()

	item, err := service.loadItemLocked(ctx, itemID)
	if err != nil {
		return err
	}

	if !item.Active {
		return nil
	}

	clone := item.Clone()
	clone.Active = false
	return service.store.UpsertPrizeItem(ctx, clone)
}

// Release puts a reserved item back into circulation, used when a
// giveaway ends without consuming it.
func (service *ServiceInventory) Release(ctx context.Context, itemID string) error {
	unlock := service.locks.Lock(LockKeyPrizeItem(itemID))
	defer unlock()

	item, err := service.loadItemLocked(ctx, itemID)
	if err != nil {
		return err
	}

	if item.Expired(service.clock.Now()) {
		return ErrPrizeExpired
	}
	if item.Active {
		return nil
	}

	clone := item.Clone()
	clone.Active = true
	if err := service.store.UpsertPrizeItem(ctx, clone); err != nil {
		return err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyPrizeItemsByType(clone.Type))
	return nil
}

func (service *ServiceInventory) GetPrizeItem(ctx context.Context, itemID string) (*models.PrizeItem, error) {
	unlock := service.locks.Lock(LockKeyPrizeItem(itemID))
	defer unlock()

	return service.loadItemLocked(ctx, itemID)
}

func (service *ServiceInventory) ListPrizeItemsByType(ctx context.Context, prizeType string) ([]*models.PrizeItem, error) {
	callback := func() ([]*models.PrizeItem, error) {
		return service.store.ListPrizeItemsByType(ctx, prizeType)
	}

	return caching.UseCache(ctx, service.cache, DBKeyPrizeItemsByType(prizeType), CACHE_TTL_1_MIN, callback)
}

// CoinAmount decodes the payload of a coin-type prize.
func CoinAmount(item *models.PrizeItem) (int64, error) {
	if item.Type != models.PRIZE_TYPE_COINS {
		return 0, errors.New("not a coin prize")
	}

	var value models.CoinPrizeValue
	if err := json.Unmarshal(item.Value, &value); err != nil {
		return 0, err
	}

	return value.Amount, nil
}

func (service *ServiceInventory) loadItemLocked(ctx context.Context, itemID string) (*models.PrizeItem, error) {
	item, err := service.store.GetPrizeItem(ctx, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPrizeUnavailable
	}
	if err != nil {
		return nil, err
	}

	return item, nil
}
