package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"coindrop/internal/models"
	"coindrop/internal/pkg"

	"github.com/google/uuid"
	"github.com/samber/do"
)

// ServiceLedger owns per-account balances and the rolling transaction
// log. The store is authoritative: every mutation takes the per-account
// lock, re-reads the stored row, mutates a clone and persists it, so
// the api, bot and cron processes all see the same balances.
type ServiceLedger struct {
	container *do.Injector
	store     AccountStore
	clock     Clock
	locks     *locker
}

func NewServiceLedger(container *do.Injector) (*ServiceLedger, error) {
	store, err := do.Invoke[AccountStore](container)
	if err != nil {
		return nil, err
	}

	clock, err := do.Invoke[Clock](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLedger{
		container: container,
		store:     store,
		clock:     clock,
		locks:     newLocker(container),
	}, nil
}

// FindOrCreateAccount resolves the authenticated user to an account,
// creating it on first reference and refreshing the profile fields.
func (service *ServiceLedger) FindOrCreateAccount(ctx context.Context, auth *models.AccountFromAuth) (*models.Account, error) {
	unlock := service.locks.Lock(LockKeyAccount(auth.ID))
	defer unlock()

	account, err := service.loadAccountLocked(ctx, auth.ID)
	if err != nil {
		return nil, err
	}

	if account.Username == auth.Username && account.FirstName == auth.FirstName && account.IsPremium == auth.IsPremium {
		return account, nil
	}

	clone := account.Clone()
	clone.Username = auth.Username
	clone.FirstName = auth.FirstName
	clone.IsPremium = auth.IsPremium
	clone.UpdatedAt = service.clock.Now()
	if err := service.store.UpsertAccount(ctx, clone); err != nil {
		return nil, err
	}

	return clone, nil
}

func (service *ServiceLedger) Account(ctx context.Context, accountID int64) (*models.Account, error) {
	unlock := service.locks.Lock(LockKeyAccount(accountID))
	defer unlock()

	return service.loadAccountLocked(ctx, accountID)
}

// Credit adds amount to the balance. A non-positive amount is a no-op,
// not an error.
func (service *ServiceLedger) Credit(ctx context.Context, accountID int64, amount int64, txType string, description string, adminID *int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, nil
	}

	unlock := service.locks.Lock(LockKeyAccount(accountID))
	tx, err := func() (*models.Transaction, error) {
		defer unlock()

		account, entries, err := service.loadAccountWithLogLocked(ctx, accountID)
		if err != nil {
			return nil, err
		}

		clone := account.Clone()
		clone.Balance += amount
		clone.TotalEarned += amount
		clone.UpdatedAt = service.clock.Now()

		tx := service.buildTransaction(accountID, amount, account.Balance, clone.Balance, txType, description, adminID, entries)
		if err := service.persistLocked(ctx, clone, tx); err != nil {
			return nil, err
		}

		return tx, nil
	}()
	if err != nil {
		return nil, err
	}

	service.bumpLeaderboard(ctx, accountID, amount)
	return tx, nil
}

// Debit removes amount from the balance. Insufficient funds is a
// normal negative result and leaves everything unchanged.
func (service *ServiceLedger) Debit(ctx context.Context, accountID int64, amount int64, txType string, description string, adminID *int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, nil
	}

	unlock := service.locks.Lock(LockKeyAccount(accountID))
	tx, err := func() (*models.Transaction, error) {
		defer unlock()

		account, entries, err := service.loadAccountWithLogLocked(ctx, accountID)
		if err != nil {
			return nil, err
		}

		if account.Balance < amount {
			return nil, ErrInsufficientBalance
		}

		clone := account.Clone()
		clone.Balance -= amount
		clone.TotalSpent += amount
		clone.UpdatedAt = service.clock.Now()

		tx := service.buildTransaction(accountID, -amount, account.Balance, clone.Balance, txType, description, adminID, entries)
		if err := service.persistLocked(ctx, clone, tx); err != nil {
			return nil, err
		}

		return tx, nil
	}()
	if err != nil {
		return nil, err
	}

	service.bumpSpendProgress(ctx, accountID, amount)
	return tx, nil
}

// RecordQuestCompletion bumps the lifetime counter and the daily
// counter, resetting the latter when the last completion was on an
// earlier UTC date.
func (service *ServiceLedger) RecordQuestCompletion(ctx context.Context, accountID int64) error {
	unlock := service.locks.Lock(LockKeyAccount(accountID))
	defer unlock()

	account, err := service.loadAccountLocked(ctx, accountID)
	if err != nil {
		return err
	}

	now := service.clock.Now()
	today := pkg.UTCDate(now)

	clone := account.Clone()
	clone.QuestsCompleted++
	if clone.LastQuestCompletedOn == nil || *clone.LastQuestCompletedOn != today {
		clone.QuestsCompletedToday = 0
	}
	clone.QuestsCompletedToday++
	clone.LastQuestCompletedOn = &today
	clone.UpdatedAt = now

	return service.store.UpsertAccount(ctx, clone)
}

// GetHistory returns the retained transactions, newest first.
func (service *ServiceLedger) GetHistory(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > TRANSACTION_LOG_LIMIT {
		limit = TRANSACTION_LOG_LIMIT
	}

	unlock := service.locks.Lock(LockKeyAccount(accountID))
	defer unlock()

	if _, err := service.loadAccountLocked(ctx, accountID); err != nil {
		return nil, err
	}

	return service.recentTransactions(ctx, accountID, limit)
}

func (service *ServiceLedger) loadAccountLocked(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := service.store.GetAccount(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		now := service.clock.Now()
		account = &models.Account{ID: accountID, CreatedAt: now, UpdatedAt: now}
		if err := service.store.UpsertAccount(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (service *ServiceLedger) loadAccountWithLogLocked(ctx context.Context, accountID int64) (*models.Account, []*models.Transaction, error) {
	account, err := service.loadAccountLocked(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := service.recentTransactions(ctx, accountID, TRANSACTION_LOG_LIMIT)
	if err != nil {
		return nil, nil, err
	}

	return account, entries, nil
}

func (service *ServiceLedger) recentTransactions(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	entries, err := service.store.RecentTransactions(ctx, accountID, limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return entries, nil
}

// entries are the retained log, newest first.
func (service *ServiceLedger) buildTransaction(accountID int64, amount int64, balanceBefore int64, balanceAfter int64, txType string, description string, adminID *int64, entries []*models.Transaction) *models.Transaction {
	now := service.clock.Now()

	// Advisory flag only; flagged transactions still apply.
	flagged := amount > TRANSACTION_FLAG_AMOUNT || -amount > TRANSACTION_FLAG_AMOUNT
	if !flagged {
		cutoff := now.Add(-TRANSACTION_FLAG_INTERVAL)
		recent := 1
		for _, entry := range entries {
			if entry.CreatedAt.Before(cutoff) {
				break
			}
			recent++
		}
		flagged = recent > TRANSACTION_FLAG_COUNT
	}

	return &models.Transaction{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Description:   description,
		AdminID:       adminID,
		Flagged:       flagged,
		CreatedAt:     now,
	}
}

func (service *ServiceLedger) persistLocked(ctx context.Context, account *models.Account, tx *models.Transaction) error {
	if err := service.store.UpsertAccount(ctx, account); err != nil {
		return err
	}

	return service.store.InsertTransaction(ctx, tx, TRANSACTION_LOG_LIMIT)
}

func (service *ServiceLedger) bumpLeaderboard(ctx context.Context, accountID int64, amount int64) {
	leaderboard, err := do.Invoke[*ServiceLeaderboard](service.container)
	if err != nil {
		return
	}

	if err := leaderboard.IncrEarnerScore(ctx, accountID, amount); err != nil {
		log.Printf("leaderboard incr failed for account %d: %v", accountID, err)
	}
}

func (service *ServiceLedger) bumpSpendProgress(ctx context.Context, accountID int64, amount int64) {
	quests, err := do.Invoke[*ServiceQuest](service.container)
	if err != nil {
		return
	}

	if _, err := quests.RecordProgress(ctx, accountID, models.QUEST_TYPE_SPEND, int(amount)); err != nil {
		log.Printf("spend progress failed for account %d: %v", accountID, err)
	}
}

func questRewardDescription(title string) string {
	return fmt.Sprintf("Quest reward: %s", title)
}
