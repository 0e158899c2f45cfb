package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"coindrop/internal/datastore/redis_store"
	"coindrop/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

var ErrGiveawayNotFound = errors.New("giveaway not found")

// ServiceGiveaway drives the giveaway lifecycle. Terminal transitions
// persist the winner before any credit or notification goes out, so a
// crash in between never causes a re-draw.
type ServiceGiveaway struct {
	container *do.Injector
	store     GiveawayStore
	inventory *ServiceInventory
	ledger    *ServiceLedger
	clock     Clock
	rng       *rand.Rand
	rngMu     sync.Mutex
	locks     *locker
	redisDB   redis.UniversalClient
}

func NewServiceGiveaway(container *do.Injector) (*ServiceGiveaway, error) {
	store, err := do.Invoke[GiveawayStore](container)
	if err != nil {
		return nil, err
	}

	inventory, err := do.Invoke[*ServiceInventory](container)
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	clock, err := do.Invoke[Clock](container)
	if err != nil {
		return nil, err
	}

	rng, err := do.InvokeNamed[*rand.Rand](container, "rng")
	if err != nil {
		return nil, err
	}

	// The announcement store is optional; without it winners are still
	// drawn and paid, just not published.
	redisDB, _ := do.InvokeNamed[redis.UniversalClient](container, "redis-db")

	return &ServiceGiveaway{
		container: container,
		store:     store,
		inventory: inventory,
		ledger:    ledger,
		clock:     clock,
		rng:       rng,
		locks:     newLocker(container),
		redisDB:   redisDB,
	}, nil
}

// Create reserves the prize first; a giveaway never exists without a
// backing item.
func (service *ServiceGiveaway) Create(ctx context.Context, hostID int64, channelID int64, title string, description string, prizeItemID string, durationHours int, maxEntries int) (*models.Giveaway, error) {
	if durationHours < GIVEAWAY_MIN_DURATION_HOURS || durationHours > GIVEAWAY_MAX_DURATION_HOURS {
		return nil, ErrInvalidDuration
	}
	if maxEntries <= 0 {
		maxEntries = GIVEAWAY_UNLIMITED_ENTRIES
	}

	item, err := service.inventory.Reserve(ctx, prizeItemID)
	if err != nil {
		return nil, err
	}

	now := service.clock.Now()
	giveaway := &models.Giveaway{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		ChannelID:   channelID,
		HostID:      hostID,
		PrizeItemID: item.ID,
		PrizeName:   item.Name,
		PrizeType:   item.Type,
		PrizeValue:  item.Value,
		StartTime:   now,
		EndTime:     now.Add(time.Duration(durationHours) * time.Hour),
		MaxEntries:  maxEntries,
		Entries:     []int64{},
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	unlock := service.locks.Lock(LockKeyGiveaway(giveaway.ID))
	defer unlock()

	if err := service.store.UpsertGiveaway(ctx, giveaway); err != nil {
		if releaseErr := service.inventory.Release(ctx, prizeItemID); releaseErr != nil {
			log.Printf("release after failed create %s: %v", giveaway.ID, releaseErr)
		}
		return nil, err
	}

	service.announce(giveaway.ChannelID, fmt.Sprintf("🎉 Giveaway started: %s — prize: %s. Enter now!", giveaway.Title, giveaway.PrizeName))
	return giveaway.Clone(), nil
}

// Enter checks the deadline against the wall clock so late entries are
// rejected even before the next sweep fires.
func (service *ServiceGiveaway) Enter(ctx context.Context, giveawayID string, accountID int64) (models.EnterStatus, error) {
	unlock := service.locks.Lock(LockKeyGiveaway(giveawayID))
	status, err := func() (models.EnterStatus, error) {
		defer unlock()

		giveaway, err := service.loadGiveawayLocked(ctx, giveawayID)
		if err != nil {
			return "", err
		}

		if !giveaway.Active || giveaway.Completed {
			return models.ENTER_INACTIVE, nil
		}
		if !service.clock.Now().Before(giveaway.EndTime) {
			return models.ENTER_EXPIRED, nil
		}
		if giveaway.Entered(accountID) {
			return models.ENTER_ALREADY_ENTERED, nil
		}
		if giveaway.Full() {
			return models.ENTER_FULL, nil
		}

		clone := giveaway.Clone()
		clone.Entries = append(clone.Entries, accountID)
		clone.UpdatedAt = service.clock.Now()
		if err := service.store.UpsertGiveaway(ctx, clone); err != nil {
			return "", err
		}

		return models.ENTER_ACCEPTED, nil
	}()
	if err != nil || status != models.ENTER_ACCEPTED {
		return status, err
	}

	service.bumpEntryProgress(ctx, accountID)
	return status, nil
}

// Tick ends every active giveaway whose deadline has passed. It runs
// at startup for recovery and then on the sweep interval; terminal
// giveaways are skipped, so repeated runs are harmless.
func (service *ServiceGiveaway) Tick(ctx context.Context) error {
	giveaways, err := service.store.ListActiveGiveaways(ctx)
	if err != nil {
		return err
	}

	now := service.clock.Now()
	for _, giveaway := range giveaways {
		if now.Before(giveaway.EndTime) {
			continue
		}
		if _, err := service.End(ctx, giveaway.ID); err != nil {
			log.Printf("ending giveaway %s: %v", giveaway.ID, err)
		}
	}

	return nil
}

// End closes the giveaway. With no entries the prize goes back to the
// inventory; otherwise a winner is drawn and persisted before the
// prize is consumed, credited or announced. Only the call that flips
// the giveaway inactive releases or delivers the prize, so a second
// End is a pure no-op.
func (service *ServiceGiveaway) End(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	unlock := service.locks.Lock(LockKeyGiveaway(giveawayID))
	giveaway, drew, transitioned, err := func() (*models.Giveaway, bool, bool, error) {
		defer unlock()

		giveaway, err := service.loadGiveawayLocked(ctx, giveawayID)
		if err != nil {
			return nil, false, false, err
		}

		if !giveaway.Active {
			return giveaway, false, false, nil
		}

		clone := giveaway.Clone()
		clone.Active = false
		clone.Completed = true
		clone.UpdatedAt = service.clock.Now()

		drew := len(clone.Entries) > 0
		if drew {
			winner := service.drawWinner(clone.Entries)
			clone.WinnerID = &winner
		}

		if err := service.store.UpsertGiveaway(ctx, clone); err != nil {
			return nil, false, false, err
		}

		return clone, drew, true, nil
	}()
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return giveaway, nil
	}
	if !drew {
		service.releasePrize(ctx, giveaway)
		return giveaway, nil
	}

	if err := service.inventory.Consume(ctx, giveaway.PrizeItemID); err != nil {
		log.Printf("consuming prize %s: %v", giveaway.PrizeItemID, err)
	}

	service.deliverPrize(ctx, giveaway, *giveaway.WinnerID)
	return giveaway, nil
}

// Reroll draws a replacement winner from the original entries. The
// prize item stays consumed. Only giveaways that actually drew a
// winner qualify; a cancelled giveaway stays cancelled.
func (service *ServiceGiveaway) Reroll(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	unlock := service.locks.Lock(LockKeyGiveaway(giveawayID))
	giveaway, err := func() (*models.Giveaway, error) {
		defer unlock()

		giveaway, err := service.loadGiveawayLocked(ctx, giveawayID)
		if err != nil {
			return nil, err
		}

		if !giveaway.Completed {
			return nil, ErrGiveawayNotCompleted
		}
		if len(giveaway.Entries) == 0 {
			return nil, ErrGiveawayNoEntries
		}
		if giveaway.WinnerID == nil {
			return nil, ErrGiveawayNoWinner
		}

		clone := giveaway.Clone()
		winner := service.drawWinner(clone.Entries)
		clone.WinnerID = &winner
		clone.UpdatedAt = service.clock.Now()
		if err := service.store.UpsertGiveaway(ctx, clone); err != nil {
			return nil, err
		}

		return clone, nil
	}()
	if err != nil {
		return nil, err
	}

	service.deliverPrize(ctx, giveaway, *giveaway.WinnerID)
	return giveaway, nil
}

// Cancel aborts a running giveaway and returns the prize to the
// inventory. Completed giveaways cannot be cancelled.
func (service *ServiceGiveaway) Cancel(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	unlock := service.locks.Lock(LockKeyGiveaway(giveawayID))
	giveaway, err := func() (*models.Giveaway, error) {
		defer unlock()

		giveaway, err := service.loadGiveawayLocked(ctx, giveawayID)
		if err != nil {
			return nil, err
		}

		if giveaway.Completed {
			return nil, ErrGiveawayCompleted
		}

		clone := giveaway.Clone()
		clone.Active = false
		clone.Completed = true
		clone.WinnerID = nil
		clone.UpdatedAt = service.clock.Now()
		if err := service.store.UpsertGiveaway(ctx, clone); err != nil {
			return nil, err
		}

		return clone, nil
	}()
	if err != nil {
		return nil, err
	}

	service.releasePrize(ctx, giveaway)
	service.announce(giveaway.ChannelID, fmt.Sprintf("Giveaway cancelled: %s", giveaway.Title))
	return giveaway, nil
}

func (service *ServiceGiveaway) Get(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	unlock := service.locks.Lock(LockKeyGiveaway(giveawayID))
	defer unlock()

	return service.loadGiveawayLocked(ctx, giveawayID)
}

func (service *ServiceGiveaway) ListActive(ctx context.Context) ([]*models.Giveaway, error) {
	return service.store.ListActiveGiveaways(ctx)
}

func (service *ServiceGiveaway) LastWinner(ctx context.Context) (*models.WinnerAnnouncement, error) {
	if service.redisDB == nil {
		return nil, nil
	}

	announcement, err := redis_store.GetLastWinner(ctx, service.redisDB)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return announcement, err
}

func (service *ServiceGiveaway) drawWinner(entries []int64) int64 {
	service.rngMu.Lock()
	defer service.rngMu.Unlock()
	return entries[service.rng.Intn(len(entries))]
}

// deliverPrize runs after the winner is durable. Coin prizes are
// credited exactly once per draw; notification failures fall back to
// the origin channel and are never retried.
func (service *ServiceGiveaway) deliverPrize(ctx context.Context, giveaway *models.Giveaway, winnerID int64) {
	if giveaway.PrizeType == models.PRIZE_TYPE_COINS {
		amount, err := CoinAmount(&models.PrizeItem{Type: giveaway.PrizeType, Value: giveaway.PrizeValue})
		if err != nil {
			log.Printf("decoding coin prize for giveaway %s: %v", giveaway.ID, err)
		} else {
			description := fmt.Sprintf("Giveaway win: %s", giveaway.Title)
			if _, err := service.ledger.Credit(ctx, winnerID, amount, models.TX_TYPE_GIVEAWAY_WIN, description, nil); err != nil {
				log.Printf("crediting giveaway %s winner %d: %v", giveaway.ID, winnerID, err)
			}
		}
	}

	if service.redisDB != nil {
		announcement := &models.WinnerAnnouncement{
			GiveawayID:  giveaway.ID,
			Title:       giveaway.Title,
			WinnerID:    winnerID,
			PrizeName:   giveaway.PrizeName,
			AnnouncedAt: service.clock.Now(),
		}
		if err := redis_store.SetLastWinner(ctx, service.redisDB, announcement); err != nil {
			log.Printf("storing winner announcement for %s: %v", giveaway.ID, err)
		}

		notified, _ := redis_store.GetWinnerNotified(ctx, service.redisDB, giveaway.ID, winnerID)
		if notified {
			return
		}
	}

	notifier, err := do.Invoke[Notifier](service.container)
	if err != nil {
		return
	}

	text := fmt.Sprintf("🎉 You won the giveaway \"%s\"! Prize: %s", giveaway.Title, giveaway.PrizeName)
	if err := notifier.NotifyUser(winnerID, text); err != nil {
		fallback := fmt.Sprintf("🎉 Giveaway \"%s\" has a winner! Prize: %s (%s). Congratulations!", giveaway.Title, giveaway.PrizeName, string(giveaway.PrizeValue))
		if err := notifier.NotifyChannel(giveaway.ChannelID, fallback); err != nil {
			log.Printf("winner fallback for giveaway %s: %v", giveaway.ID, err)
		}
	}

	if service.redisDB != nil {
		if err := redis_store.SetWinnerNotified(ctx, service.redisDB, giveaway.ID, winnerID); err != nil {
			log.Printf("marking winner notified for %s: %v", giveaway.ID, err)
		}
	}
}

func (service *ServiceGiveaway) releasePrize(ctx context.Context, giveaway *models.Giveaway) {
	if err := service.inventory.Release(ctx, giveaway.PrizeItemID); err != nil {
		log.Printf("releasing prize %s: %v", giveaway.PrizeItemID, err)
	}
}

func (service *ServiceGiveaway) announce(channelID int64, text string) {
	if channelID == 0 {
		return
	}

	notifier, err := do.Invoke[Notifier](service.container)
	if err != nil {
		return
	}

	if err := notifier.NotifyChannel(channelID, text); err != nil {
		log.Printf("channel announcement failed: %v", err)
	}
}

func (service *ServiceGiveaway) bumpEntryProgress(ctx context.Context, accountID int64) {
	quests, err := do.Invoke[*ServiceQuest](service.container)
	if err != nil {
		return
	}

	if _, err := quests.RecordProgress(ctx, accountID, models.QUEST_TYPE_GIVEAWAY_ENTRY, 1); err != nil {
		log.Printf("entry progress failed for account %d: %v", accountID, err)
	}
}

func (service *ServiceGiveaway) loadGiveawayLocked(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	giveaway, err := service.store.GetGiveaway(ctx, giveawayID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	return giveaway, nil
}
