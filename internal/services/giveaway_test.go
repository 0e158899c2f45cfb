package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coindrop/internal/models"
)

func createGiveaway(t *testing.T, env *testEnv, prizeAmount int64, durationHours int, maxEntries int) *models.Giveaway {
	t.Helper()

	item := addCoinPrize(t, env, prizeAmount, nil)
	giveaway, err := env.giveaway(t).Create(context.Background(), 99, 555, "Coin Drop", "win big", item.ID, durationHours, maxEntries)
	if err != nil {
		t.Fatalf("create giveaway: %v", err)
	}
	return giveaway
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()
	item := addCoinPrize(t, env, 500, nil)

	for _, hours := range []int{0, -1, 169} {
		if _, err := service.Create(ctx, 99, 555, "bad", "", item.ID, hours, -1); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("duration %d: expected ErrInvalidDuration, got %v", hours, err)
		}
	}

	if _, err := service.Create(ctx, 99, 555, "ok", "", "unknown-item", 24, -1); !errors.Is(err, ErrPrizeUnavailable) {
		t.Fatalf("expected ErrPrizeUnavailable, got %v", err)
	}
}

func TestCreateReservesPrize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 24, -1)
	if !giveaway.Active || giveaway.Completed {
		t.Fatalf("new giveaway in wrong state: active=%v completed=%v", giveaway.Active, giveaway.Completed)
	}
	if giveaway.EndTime.Sub(giveaway.StartTime) != 24*time.Hour {
		t.Fatalf("unexpected duration: %v", giveaway.EndTime.Sub(giveaway.StartTime))
	}

	// the backing item is now held by the giveaway
	if _, err := env.inventory(t).Reserve(ctx, giveaway.PrizeItemID); !errors.Is(err, ErrPrizeUnavailable) {
		t.Fatalf("expected reserved prize to be unavailable, got %v", err)
	}
}

func TestEnterStatuses(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 1, 2)

	status, err := service.Enter(ctx, giveaway.ID, 1)
	if err != nil || status != models.ENTER_ACCEPTED {
		t.Fatalf("first enter: (%v, %v)", status, err)
	}

	status, err = service.Enter(ctx, giveaway.ID, 1)
	if err != nil || status != models.ENTER_ALREADY_ENTERED {
		t.Fatalf("duplicate enter: (%v, %v)", status, err)
	}

	status, err = service.Enter(ctx, giveaway.ID, 2)
	if err != nil || status != models.ENTER_ACCEPTED {
		t.Fatalf("second enter: (%v, %v)", status, err)
	}

	status, err = service.Enter(ctx, giveaway.ID, 3)
	if err != nil || status != models.ENTER_FULL {
		t.Fatalf("over-capacity enter: (%v, %v)", status, err)
	}
}

func TestEnterAfterDeadlineRejected(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 1, -1)

	// past endTime but before any sweep ran
	env.clock.Advance(2 * time.Hour)
	status, err := service.Enter(ctx, giveaway.ID, 1)
	if err != nil || status != models.ENTER_EXPIRED {
		t.Fatalf("late enter: (%v, %v)", status, err)
	}
}

func TestEnterConcurrentCapacity(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 24, 2)

	const m = 5
	statuses := make([]models.EnterStatus, m)
	var wg sync.WaitGroup
	for i := 0; i < m; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, err := service.Enter(ctx, giveaway.ID, int64(i+1))
			if err != nil {
				t.Errorf("enter %d: %v", i, err)
				return
			}
			statuses[i] = status
		}(i)
	}
	wg.Wait()

	var accepted, full int
	for _, status := range statuses {
		switch status {
		case models.ENTER_ACCEPTED:
			accepted++
		case models.ENTER_FULL:
			full++
		}
	}
	if accepted != 2 || full != m-2 {
		t.Fatalf("expected 2 accepted and %d full, got %d/%d", m-2, accepted, full)
	}
}

func TestEndDrawsWinnerAndCredits(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ledger := env.ledger(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 1, -1)
	for _, id := range []int64{1, 2} {
		if status, err := service.Enter(ctx, giveaway.ID, id); err != nil || status != models.ENTER_ACCEPTED {
			t.Fatalf("enter %d: (%v, %v)", id, status, err)
		}
	}

	before := map[int64]int64{}
	for _, id := range []int64{1, 2} {
		account, err := ledger.Account(ctx, id)
		if err != nil {
			t.Fatalf("account %d: %v", id, err)
		}
		before[id] = account.Balance
	}

	env.clock.Advance(2 * time.Hour)
	ended, err := service.End(ctx, giveaway.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}

	if ended.Active || !ended.Completed {
		t.Fatalf("ended giveaway in wrong state: active=%v completed=%v", ended.Active, ended.Completed)
	}
	if ended.WinnerID == nil {
		t.Fatal("no winner drawn")
	}
	winner := *ended.WinnerID
	if winner != 1 && winner != 2 {
		t.Fatalf("winner %d not among entries", winner)
	}

	account, _ := ledger.Account(ctx, winner)
	if account.Balance != before[winner]+500 {
		t.Fatalf("winner balance %d, want %d", account.Balance, before[winner]+500)
	}

	// prize is consumed and off the shelf
	if _, err := env.inventory(t).Reserve(ctx, ended.PrizeItemID); !errors.Is(err, ErrPrizeUnavailable) {
		t.Fatalf("consumed prize should be unavailable, got %v", err)
	}
}

func TestEndIdempotent(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ledger := env.ledger(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 1, -1)
	if _, err := service.Enter(ctx, giveaway.ID, 1); err != nil {
		t.Fatalf("enter: %v", err)
	}

	env.clock.Advance(2 * time.Hour)
	first, err := service.End(ctx, giveaway.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	account, _ := ledger.Account(ctx, *first.WinnerID)
	balance := account.Balance

	second, err := service.End(ctx, giveaway.ID)
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if second.WinnerID == nil || *second.WinnerID != *first.WinnerID {
		t.Fatal("second end changed the winner")
	}

	account, _ = ledger.Account(ctx, *first.WinnerID)
	if account.Balance != balance {
		t.Fatalf("second end re-credited: %d -> %d", balance, account.Balance)
	}
}

func TestEndNoEntriesReleasesPrize(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 1, -1)

	env.clock.Advance(2 * time.Hour)
	ended, err := service.End(ctx, giveaway.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if !ended.Completed || ended.WinnerID != nil {
		t.Fatalf("zero-entry end in wrong state: completed=%v winner=%v", ended.Completed, ended.WinnerID)
	}

	// prize went back to the shelf
	if _, err := env.inventory(t).Reserve(ctx, ended.PrizeItemID); err != nil {
		t.Fatalf("released prize should be reservable: %v", err)
	}
}

func TestRerollRules(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()

	active := createGiveaway(t, env, 500, 24, -1)
	if _, err := service.Reroll(ctx, active.ID); !errors.Is(err, ErrGiveawayNotCompleted) {
		t.Fatalf("reroll on active: expected ErrGiveawayNotCompleted, got %v", err)
	}

	empty := createGiveaway(t, env, 500, 1, -1)
	env.clock.Advance(2 * time.Hour)
	if _, err := service.End(ctx, empty.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := service.Reroll(ctx, empty.ID); !errors.Is(err, ErrGiveawayNoEntries) {
		t.Fatalf("reroll with no entries: expected ErrGiveawayNoEntries, got %v", err)
	}
}

func TestEndAgainKeepsNewReservation(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()

	first := createGiveaway(t, env, 500, 1, -1)
	env.clock.Advance(2 * time.Hour)
	if _, err := service.End(ctx, first.ID); err != nil {
		t.Fatalf("end: %v", err)
	}

	// the released item now backs a new giveaway
	second, err := service.Create(ctx, 99, 555, "Second Drop", "", first.PrizeItemID, 24, -1)
	if err != nil {
		t.Fatalf("create on released item: %v", err)
	}

	// ending the settled giveaway again must not touch the item
	if _, err := service.End(ctx, first.ID); err != nil {
		t.Fatalf("repeat end: %v", err)
	}

	if _, err := env.inventory(t).Reserve(ctx, first.PrizeItemID); !errors.Is(err, ErrPrizeUnavailable) {
		t.Fatalf("item held by the new giveaway should stay reserved, got %v", err)
	}
	current, err := service.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !current.Active || current.Completed {
		t.Fatalf("new giveaway disturbed: active=%v completed=%v", current.Active, current.Completed)
	}
}

func TestRerollAfterCancelRejected(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ledger := env.ledger(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 24, -1)
	if _, err := service.Enter(ctx, giveaway.ID, 1); err != nil {
		t.Fatalf("enter: %v", err)
	}
	account, _ := ledger.Account(ctx, 1)
	before := account.Balance

	if _, err := service.Cancel(ctx, giveaway.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// cancelled giveaways have entries but never drew a winner
	if _, err := service.Reroll(ctx, giveaway.ID); !errors.Is(err, ErrGiveawayNoWinner) {
		t.Fatalf("reroll after cancel: expected ErrGiveawayNoWinner, got %v", err)
	}

	current, err := service.Get(ctx, giveaway.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.WinnerID != nil {
		t.Fatalf("reroll drew a winner on a cancelled giveaway: %d", *current.WinnerID)
	}
	account, _ = ledger.Account(ctx, 1)
	if account.Balance != before {
		t.Fatalf("reroll credited a cancelled giveaway: %d -> %d", before, account.Balance)
	}
}

func TestRerollDrawsFromEntries(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 1, -1)
	for _, id := range []int64{1, 2, 3} {
		if _, err := service.Enter(ctx, giveaway.ID, id); err != nil {
			t.Fatalf("enter %d: %v", id, err)
		}
	}

	env.clock.Advance(2 * time.Hour)
	if _, err := service.End(ctx, giveaway.ID); err != nil {
		t.Fatalf("end: %v", err)
	}

	for i := 0; i < 5; i++ {
		rerolled, err := service.Reroll(ctx, giveaway.ID)
		if err != nil {
			t.Fatalf("reroll %d: %v", i, err)
		}
		if w := *rerolled.WinnerID; w != 1 && w != 2 && w != 3 {
			t.Fatalf("reroll winner %d not among entries", w)
		}
	}
}

func TestCancelReleasesPrize(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 24, -1)
	if _, err := service.Enter(ctx, giveaway.ID, 1); err != nil {
		t.Fatalf("enter: %v", err)
	}

	cancelled, err := service.Cancel(ctx, giveaway.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Active || !cancelled.Completed || cancelled.WinnerID != nil {
		t.Fatalf("cancelled giveaway in wrong state: %+v", cancelled)
	}

	if _, err := env.inventory(t).Reserve(ctx, cancelled.PrizeItemID); err != nil {
		t.Fatalf("released prize should be reservable: %v", err)
	}

	if _, err := service.Cancel(ctx, giveaway.ID); !errors.Is(err, ErrGiveawayCompleted) {
		t.Fatalf("cancel after terminal: expected ErrGiveawayCompleted, got %v", err)
	}
}

func TestTickRecoveryIdempotent(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ledger := env.ledger(t)
	ctx := context.Background()

	overdue := createGiveaway(t, env, 500, 1, -1)
	if _, err := service.Enter(ctx, overdue.ID, 1); err != nil {
		t.Fatalf("enter: %v", err)
	}
	running := createGiveaway(t, env, 500, 48, -1)

	// simulate restart after the deadline passed
	env.clock.Advance(2 * time.Hour)
	if err := service.Tick(ctx); err != nil {
		t.Fatalf("recovery tick: %v", err)
	}

	ended, err := service.Get(ctx, overdue.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ended.Completed || ended.WinnerID == nil {
		t.Fatal("overdue giveaway not settled by recovery")
	}
	account, _ := ledger.Account(ctx, *ended.WinnerID)
	balance := account.Balance

	still, err := service.Get(ctx, running.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !still.Active {
		t.Fatal("running giveaway ended early")
	}

	if err := service.Tick(ctx); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	account, _ = ledger.Account(ctx, *ended.WinnerID)
	if account.Balance != balance {
		t.Fatalf("second tick re-credited: %d -> %d", balance, account.Balance)
	}
}

func TestEndAcrossContainers(t *testing.T) {
	env := newTestEnv(t)
	other := env.fork(t)
	ledger := env.ledger(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 1, -1)
	for _, id := range []int64{1, 2} {
		if _, err := env.giveaway(t).Enter(ctx, giveaway.ID, id); err != nil {
			t.Fatalf("enter %d: %v", id, err)
		}
	}

	env.clock.Advance(2 * time.Hour)
	first, err := env.giveaway(t).End(ctx, giveaway.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	account, _ := ledger.Account(ctx, *first.WinnerID)
	balance := account.Balance

	// the other binary's sweep sees the settled row, not a stale copy
	second, err := other.giveaway(t).End(ctx, giveaway.ID)
	if err != nil {
		t.Fatalf("end from other container: %v", err)
	}
	if second.WinnerID == nil || *second.WinnerID != *first.WinnerID {
		t.Fatal("other container redrew the winner")
	}
	account, _ = other.ledger(t).Account(ctx, *first.WinnerID)
	if account.Balance != balance {
		t.Fatalf("other container re-credited: %d -> %d", balance, account.Balance)
	}
}

func TestWinnerNotificationFallsBackToChannel(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.failUser = true
	service := env.giveaway(t)
	ledger := env.ledger(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 1, -1)
	if _, err := service.Enter(ctx, giveaway.ID, 1); err != nil {
		t.Fatalf("enter: %v", err)
	}
	account, _ := ledger.Account(ctx, 1)
	before := account.Balance

	env.notifier.mu.Lock()
	sent := len(env.notifier.channels)
	env.notifier.mu.Unlock()

	env.clock.Advance(2 * time.Hour)
	if _, err := service.End(ctx, giveaway.ID); err != nil {
		t.Fatalf("end: %v", err)
	}

	env.notifier.mu.Lock()
	channels := append([]int64(nil), env.notifier.channels...)
	env.notifier.mu.Unlock()

	if len(channels) <= sent || channels[len(channels)-1] != 555 {
		t.Fatal("expected channel fallback after failed DM")
	}

	// the credit is decoupled from notification
	account, _ = ledger.Account(ctx, 1)
	if account.Balance != before+500 {
		t.Fatalf("credit missing after failed DM: %d", account.Balance)
	}
}

func TestPersistFailureDuringEnd(t *testing.T) {
	env := newTestEnv(t)
	service := env.giveaway(t)
	ctx := context.Background()

	giveaway := createGiveaway(t, env, 500, 1, -1)
	if _, err := service.Enter(ctx, giveaway.ID, 1); err != nil {
		t.Fatalf("enter: %v", err)
	}

	env.clock.Advance(2 * time.Hour)
	env.giveaways.fail = true
	if _, err := service.End(ctx, giveaway.ID); err == nil {
		t.Fatal("expected persistence error")
	}
	env.giveaways.fail = false

	current, err := service.Get(ctx, giveaway.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Completed || current.WinnerID != nil {
		t.Fatal("failed persist left giveaway mutated")
	}

	// a later end still settles it
	ended, err := service.End(ctx, giveaway.ID)
	if err != nil || !ended.Completed {
		t.Fatalf("retried end: (%+v, %v)", ended, err)
	}
}
