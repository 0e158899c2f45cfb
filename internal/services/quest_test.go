package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"coindrop/internal/models"
	"coindrop/internal/pkg"
)

func seedQuestSet(t *testing.T, env *testEnv, accountID int64, quests ...*models.Quest) {
	t.Helper()

	err := env.sets.UpsertQuestSet(context.Background(), &models.QuestSet{
		AccountID:    accountID,
		AssignedDate: pkg.UTCDate(env.clock.Now()),
		Quests:       quests,
		UpdatedAt:    env.clock.Now(),
	})
	if err != nil {
		t.Fatalf("seed quest set: %v", err)
	}
}

func TestGenerateDailySet(t *testing.T) {
	env := newTestEnv(t)
	quest := env.quest(t)
	ctx := context.Background()

	set, err := quest.GetOrGenerateDailySet(ctx, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(set.Quests) != 2 {
		t.Fatalf("free account should get 2 quests, got %d", len(set.Quests))
	}
	if set.Quests[0].Difficulty != models.QUEST_DIFFICULTY_EASY {
		t.Fatalf("first quest should be easy, got %s", set.Quests[0].Difficulty)
	}
	if set.Quests[1].Difficulty != models.QUEST_DIFFICULTY_HARD {
		t.Fatalf("second quest should be hard, got %s", set.Quests[1].Difficulty)
	}

	easy := set.Quests[0]
	if easy.CoinReward < QUEST_REWARD_MIN_EASY || easy.CoinReward > QUEST_REWARD_MAX_EASY {
		t.Fatalf("easy reward %d outside [%d, %d]", easy.CoinReward, QUEST_REWARD_MIN_EASY, QUEST_REWARD_MAX_EASY)
	}
	hard := set.Quests[1]
	if hard.CoinReward < QUEST_REWARD_MIN_HARD || hard.CoinReward > QUEST_REWARD_MAX_HARD {
		t.Fatalf("hard reward %d outside [%d, %d]", hard.CoinReward, QUEST_REWARD_MIN_HARD, QUEST_REWARD_MAX_HARD)
	}
}

func TestGenerateDailySetPremium(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.ledger(t).FindOrCreateAccount(ctx, &models.AccountFromAuth{ID: 7, Username: "vip", IsPremium: true}); err != nil {
		t.Fatalf("create account: %v", err)
	}

	set, err := env.quest(t).GetOrGenerateDailySet(ctx, 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(set.Quests) != 3 {
		t.Fatalf("premium account should get 3 quests, got %d", len(set.Quests))
	}
	premium := set.Quests[2]
	if premium.Difficulty != models.QUEST_DIFFICULTY_PREMIUM {
		t.Fatalf("third quest should be premium, got %s", premium.Difficulty)
	}
	if premium.CoinReward < QUEST_REWARD_MIN_PREMIUM || premium.CoinReward > QUEST_REWARD_MAX_PREMIUM {
		t.Fatalf("premium reward %d outside range", premium.CoinReward)
	}
}

func TestDailySetStableWithinDay(t *testing.T) {
	env := newTestEnv(t)
	quest := env.quest(t)
	ctx := context.Background()

	first, err := quest.GetOrGenerateDailySet(ctx, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := quest.GetOrGenerateDailySet(ctx, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if first.Quests[0].ID != second.Quests[0].ID {
		t.Fatal("set re-rolled within the same day")
	}
}

func TestSetReplacedOnNewDay(t *testing.T) {
	env := newTestEnv(t)
	quest := env.quest(t)
	ctx := context.Background()

	first, err := quest.GetOrGenerateDailySet(ctx, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	needs, err := quest.NeedsReset(ctx, 1)
	if err != nil || needs {
		t.Fatalf("fresh set should not need reset (needs=%v err=%v)", needs, err)
	}

	env.clock.Advance(24 * time.Hour)

	needs, err = quest.NeedsReset(ctx, 1)
	if err != nil || !needs {
		t.Fatalf("stale set should need reset (needs=%v err=%v)", needs, err)
	}

	second, err := quest.GetOrGenerateDailySet(ctx, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if second.AssignedDate == first.AssignedDate {
		t.Fatal("assigned date did not roll over")
	}
	if second.Quests[0].ID == first.Quests[0].ID {
		t.Fatal("stale set was not replaced")
	}
}

func TestRecordProgressCompletesAndPays(t *testing.T) {
	env := newTestEnv(t)
	quest := env.quest(t)
	ctx := context.Background()

	seedQuestSet(t, env, 1, &models.Quest{
		ID:          "q1",
		Type:        models.QUEST_TYPE_MESSAGE,
		Difficulty:  models.QUEST_DIFFICULTY_EASY,
		Title:       "Chatterbox",
		TargetValue: 5,
		CoinReward:  80,
	})

	completed, err := quest.RecordProgress(ctx, 1, models.QUEST_TYPE_MESSAGE, 3)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(completed) != 0 {
		t.Fatal("quest completed too early")
	}

	completed, err = quest.RecordProgress(ctx, 1, models.QUEST_TYPE_MESSAGE, 3)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(completed))
	}
	if completed[0].CurrentProgress != 5 {
		t.Fatalf("progress should cap at target, got %d", completed[0].CurrentProgress)
	}
	if !completed[0].Completed || !completed[0].Claimed {
		t.Fatal("completed quest should latch completed and claimed")
	}
	if completed[0].CompletedAt == nil {
		t.Fatal("completedAt not stamped")
	}

	account, err := env.ledger(t).Account(ctx, 1)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if account.Balance != 80 {
		t.Fatalf("expected auto-claim credit of 80, got balance %d", account.Balance)
	}
	if account.QuestsCompleted != 1 || account.QuestsCompletedToday != 1 {
		t.Fatalf("completion counters not bumped: %d/%d", account.QuestsCompleted, account.QuestsCompletedToday)
	}

	// further progress on a completed quest does nothing
	completed, err = quest.RecordProgress(ctx, 1, models.QUEST_TYPE_MESSAGE, 10)
	if err != nil || len(completed) != 0 {
		t.Fatalf("completed quest progressed again (%v, %v)", completed, err)
	}
	account, _ = env.ledger(t).Account(ctx, 1)
	if account.Balance != 80 {
		t.Fatalf("double payout: balance %d", account.Balance)
	}
}

func TestProgressAppliesToEachMatchingQuest(t *testing.T) {
	env := newTestEnv(t)
	quest := env.quest(t)
	ctx := context.Background()

	seedQuestSet(t, env, 1,
		&models.Quest{ID: "a", Type: models.QUEST_TYPE_MESSAGE, TargetValue: 5, CoinReward: 50},
		&models.Quest{ID: "b", Type: models.QUEST_TYPE_MESSAGE, TargetValue: 30, CoinReward: 200},
	)

	completed, err := quest.RecordProgress(ctx, 1, models.QUEST_TYPE_MESSAGE, 5)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != "a" {
		t.Fatalf("expected only quest a to complete, got %v", completed)
	}

	quests, err := quest.ListQuests(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, q := range quests {
		if q.ID == "b" && q.CurrentProgress != 5 {
			t.Fatalf("quest b should have progressed independently, got %d", q.CurrentProgress)
		}
	}
}

func TestConcurrentClaimExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	quest := env.quest(t)
	ctx := context.Background()

	seedQuestSet(t, env, 1, &models.Quest{
		ID:          "q1",
		Type:        models.QUEST_TYPE_MESSAGE,
		TargetValue: 5,
		Completed:   true,
		CoinReward:  100,
	})

	const n = 10
	results := make([]*models.Transaction, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := quest.Claim(ctx, 1, "q1")
			if err != nil {
				t.Errorf("claim: %v", err)
				return
			}
			results[i] = tx
		}(i)
	}
	wg.Wait()

	var paid int
	for _, tx := range results {
		if tx != nil {
			paid++
		}
	}
	if paid != 1 {
		t.Fatalf("expected exactly 1 successful claim, got %d", paid)
	}

	account, _ := env.ledger(t).Account(ctx, 1)
	if account.Balance != 100 {
		t.Fatalf("expected balance 100 after single payout, got %d", account.Balance)
	}
}

func TestClaimNotClaimableIsNoop(t *testing.T) {
	env := newTestEnv(t)
	quest := env.quest(t)
	ctx := context.Background()

	seedQuestSet(t, env, 1,
		&models.Quest{ID: "incomplete", Type: models.QUEST_TYPE_MESSAGE, TargetValue: 5, CoinReward: 50},
		&models.Quest{ID: "claimed", Type: models.QUEST_TYPE_MESSAGE, TargetValue: 5, Completed: true, Claimed: true, CoinReward: 50},
	)

	for _, id := range []string{"incomplete", "claimed", "unknown"} {
		tx, err := quest.Claim(ctx, 1, id)
		if err != nil || tx != nil {
			t.Fatalf("claim %q: expected (nil, nil), got (%v, %v)", id, tx, err)
		}
	}
}

func TestClaimedRewardLandsOnExistingBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.ledger(t).Credit(ctx, 1, 600, models.TX_TYPE_ADMIN_GRANT, "seed", nil); err != nil {
		t.Fatalf("credit: %v", err)
	}

	seedQuestSet(t, env, 1, &models.Quest{
		ID:          "easy",
		Type:        models.QUEST_TYPE_CHECKIN,
		Difficulty:  models.QUEST_DIFFICULTY_EASY,
		TargetValue: 1,
		CoinReward:  80,
	})

	completed, err := env.quest(t).RecordProgress(ctx, 1, models.QUEST_TYPE_CHECKIN, 1)
	if err != nil || len(completed) != 1 {
		t.Fatalf("checkin: (%v, %v)", completed, err)
	}

	history, _ := env.ledger(t).GetHistory(ctx, 1, 1)
	if len(history) != 1 || history[0].Amount != 80 || history[0].BalanceAfter != 680 {
		t.Fatalf("unexpected reward transaction: %+v", history[0])
	}
}

func TestCompletionNotificationBestEffort(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.failUser = true
	ctx := context.Background()

	seedQuestSet(t, env, 1, &models.Quest{
		ID:          "q1",
		Type:        models.QUEST_TYPE_CHECKIN,
		TargetValue: 1,
		CoinReward:  60,
	})

	completed, err := env.quest(t).RecordProgress(ctx, 1, models.QUEST_TYPE_CHECKIN, 1)
	if err != nil || len(completed) != 1 {
		t.Fatalf("checkin: (%v, %v)", completed, err)
	}

	// notification failure never blocks or re-credits
	account, _ := env.ledger(t).Account(ctx, 1)
	if account.Balance != 60 {
		t.Fatalf("expected credit despite failed notification, got %d", account.Balance)
	}
}
