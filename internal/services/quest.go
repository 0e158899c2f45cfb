package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"

	"coindrop/internal/models"
	"coindrop/internal/pkg"

	"github.com/google/uuid"
	"github.com/samber/do"
)

// ServiceQuest assigns daily quest sets and tracks progress. Completed
// quests are claimed immediately: the claimed flag is persisted before
// the credit so a retried call can never pay twice.
type ServiceQuest struct {
	container *do.Injector
	store     QuestSetStore
	ledger    *ServiceLedger
	clock     Clock
	rng       *rand.Rand
	rngMu     sync.Mutex
	locks     *locker
}

func NewServiceQuest(container *do.Injector) (*ServiceQuest, error) {
	store, err := do.Invoke[QuestSetStore](container)
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

	return &ServiceQuest{
		container: container,
		store:     store,
		ledger:    ledger,
		clock:     clock,
		rng:       rng,
		locks:     newLocker(container),
	}, nil
}

// NeedsReset reports whether the stored set belongs to an earlier UTC day.
func (service *ServiceQuest) NeedsReset(ctx context.Context, accountID int64) (bool, error) {
	unlock := service.locks.Lock(LockKeyQuests(accountID))
	defer unlock()

	set, err := service.loadSetLocked(ctx, accountID)
	if err != nil {
		return false, err
	}

	return set == nil || set.AssignedDate != pkg.UTCDate(service.clock.Now()), nil
}

// GetOrGenerateDailySet returns today's set, rolling a fresh one when
// the stored set is missing or stale. Premium accounts get a third quest.
func (service *ServiceQuest) GetOrGenerateDailySet(ctx context.Context, accountID int64) (*models.QuestSet, error) {
	account, err := service.ledger.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}

	unlock := service.locks.Lock(LockKeyQuests(accountID))
	defer unlock()

	return service.ensureSetLocked(ctx, account)
}

// RecordProgress adds amount to every matching non-completed quest in
// today's set. Quests crossing their target are latched completed,
// claimed and paid out.
func (service *ServiceQuest) RecordProgress(ctx context.Context, accountID int64, questType string, amount int) ([]*models.Quest, error) {
	if amount <= 0 {
		return nil, nil
	}

	account, err := service.ledger.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}

	unlock := service.locks.Lock(LockKeyQuests(accountID))
	completed, err := func() ([]*models.Quest, error) {
		defer unlock()

		set, err := service.ensureSetLocked(ctx, account)
		if err != nil {
			return nil, err
		}

		clone := set.Clone()
		now := service.clock.Now()

		var progressed bool
		var completed []*models.Quest
		for _, quest := range clone.Quests {
			if quest.Type != questType || quest.Completed {
				continue
			}

			progressed = true
			quest.CurrentProgress += amount
			if quest.CurrentProgress >= quest.TargetValue {
				quest.CurrentProgress = quest.TargetValue
				quest.Completed = true
				quest.Claimed = true
				completedAt := now
				quest.CompletedAt = &completedAt
				completed = append(completed, quest)
			}
		}

		if !progressed {
			return nil, nil
		}

		clone.UpdatedAt = now
		if err := service.store.UpsertQuestSet(ctx, clone); err != nil {
			return nil, err
		}

		return completed, nil
	}()
	if err != nil || len(completed) == 0 {
		return nil, err
	}

	for _, quest := range completed {
		service.payout(ctx, accountID, quest)
	}

	return completed, nil
}

// Claim pays out a completed quest whose claimed flag is still unset.
// Auto-claim latches the flag for every quest it completes, so a quest
// claimed there never pays twice here. A non-claimable quest is a
// no-op, not an error.
func (service *ServiceQuest) Claim(ctx context.Context, accountID int64, questID string) (*models.Transaction, error) {
	unlock := service.locks.Lock(LockKeyQuests(accountID))
	quest, err := func() (*models.Quest, error) {
		defer unlock()

		set, err := service.loadSetLocked(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if set == nil {
			return nil, nil
		}

		clone := set.Clone()
		for _, quest := range clone.Quests {
			if quest.ID != questID || !quest.Claimable() {
				continue
			}

			quest.Claimed = true
			clone.UpdatedAt = service.clock.Now()
			if err := service.store.UpsertQuestSet(ctx, clone); err != nil {
				return nil, err
			}

			return quest, nil
		}

		return nil, nil
	}()
	if err != nil || quest == nil {
		return nil, err
	}

	tx, err := service.ledger.Credit(ctx, accountID, quest.CoinReward, models.TX_TYPE_QUEST_REWARD, questRewardDescription(quest.Title), nil)
	if err != nil {
		return nil, err
	}

	if err := service.ledger.RecordQuestCompletion(ctx, accountID); err != nil {
		log.Printf("completion counters failed for account %d: %v", accountID, err)
	}

	service.notifyCompletion(accountID, quest)
	return tx, nil
}

func (service *ServiceQuest) ListQuests(ctx context.Context, accountID int64) ([]*models.Quest, error) {
	set, err := service.GetOrGenerateDailySet(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return set.Quests, nil
}

func (service *ServiceQuest) ListCompleted(ctx context.Context, accountID int64) ([]*models.Quest, error) {
	quests, err := service.ListQuests(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var completed []*models.Quest
	for _, quest := range quests {
		if quest.Completed {
			completed = append(completed, quest)
		}
	}

	return completed, nil
}

// payout credits the reward for a quest whose claimed flag is already
// durable. The credit is never retried; notification is best-effort.
func (service *ServiceQuest) payout(ctx context.Context, accountID int64, quest *models.Quest) {
	_, err := service.ledger.Credit(ctx, accountID, quest.CoinReward, models.TX_TYPE_QUEST_REWARD, questRewardDescription(quest.Title), nil)
	if err != nil {
		log.Printf("quest payout failed for account %d quest %s: %v", accountID, quest.ID, err)
		return
	}

	if err := service.ledger.RecordQuestCompletion(ctx, accountID); err != nil {
		log.Printf("completion counters failed for account %d: %v", accountID, err)
	}

	service.notifyCompletion(accountID, quest)
}

func (service *ServiceQuest) notifyCompletion(accountID int64, quest *models.Quest) {
	notifier, err := do.Invoke[Notifier](service.container)
	if err != nil {
		return
	}

	text := fmt.Sprintf("%s Quest completed: %s! You earned %d coins.", quest.Emoji, quest.Title, quest.CoinReward)
	if err := notifier.NotifyUser(accountID, text); err != nil {
		log.Printf("quest notification failed for account %d: %v", accountID, err)
	}
}

func (service *ServiceQuest) ensureSetLocked(ctx context.Context, account *models.Account) (*models.QuestSet, error) {
	today := pkg.UTCDate(service.clock.Now())

	set, err := service.loadSetLocked(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if set != nil && set.AssignedDate == today {
		return set, nil
	}

	set = service.generateSet(account, today)
	if err := service.store.UpsertQuestSet(ctx, set); err != nil {
		return nil, err
	}

	return set, nil
}

func (service *ServiceQuest) generateSet(account *models.Account, today string) *models.QuestSet {
	service.rngMu.Lock()
	defer service.rngMu.Unlock()

	quests := []*models.Quest{
		rollQuest(service.rng, easyChooser, models.QUEST_DIFFICULTY_EASY, uuid.NewString()),
		rollQuest(service.rng, hardChooser, models.QUEST_DIFFICULTY_HARD, uuid.NewString()),
	}
	if account.IsPremium {
		quests = append(quests, rollQuest(service.rng, premiumChooser, models.QUEST_DIFFICULTY_PREMIUM, uuid.NewString()))
	}

	return &models.QuestSet{
		AccountID:    account.ID,
		AssignedDate: today,
		Quests:       quests,
		UpdatedAt:    service.clock.Now(),
	}
}

func (service *ServiceQuest) loadSetLocked(ctx context.Context, accountID int64) (*models.QuestSet, error) {
	set, err := service.store.GetQuestSet(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return set, nil
}
