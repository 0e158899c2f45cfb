package services

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"coindrop/internal/models"
	"coindrop/internal/pkg/caching"

	"github.com/go-redis/cache/v9"
	"github.com/samber/do"
)

var errStoreDown = errors.New("store down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// nopCache misses on every read so callbacks always run.
type nopCache struct{}

func (nopCache) Get(ctx context.Context, key string, target any) error {
	return cache.ErrCacheMiss
}

func (nopCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (nopCache) Delete(ctx context.Context, key string) error {
	return nil
}

type memAccountStore struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	txs      map[int64][]*models.Transaction
	fail     bool
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{
		accounts: map[int64]*models.Account{},
		txs:      map[int64][]*models.Transaction{},
	}
}

func (s *memAccountStore) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return account.Clone(), nil
}

func (s *memAccountStore) UpsertAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *memAccountStore) InsertTransaction(ctx context.Context, tx *models.Transaction, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.txs[tx.AccountID] = append(s.txs[tx.AccountID], tx)
	return nil
}

func (s *memAccountStore) RecentTransactions(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.txs[accountID]
	// copy in reverse so the stable sort keeps later insertions first
	// when timestamps tie, matching the newest-first contract
	entries := make([]*models.Transaction, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		entries = append(entries, stored[i])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type memQuestSetStore struct {
	mu   sync.Mutex
	sets map[int64]*models.QuestSet
	fail bool
}

func newMemQuestSetStore() *memQuestSetStore {
	return &memQuestSetStore{sets: map[int64]*models.QuestSet{}}
}

func (s *memQuestSetStore) GetQuestSet(ctx context.Context, accountID int64) (*models.QuestSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[accountID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return set.Clone(), nil
}

func (s *memQuestSetStore) UpsertQuestSet(ctx context.Context, set *models.QuestSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.sets[set.AccountID] = set.Clone()
	return nil
}

type memPrizeStore struct {
	mu    sync.Mutex
	items map[string]*models.PrizeItem
	fail  bool
}

func newMemPrizeStore() *memPrizeStore {
	return &memPrizeStore{items: map[string]*models.PrizeItem{}}
}

func (s *memPrizeStore) GetPrizeItem(ctx context.Context, id string) (*models.PrizeItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return item.Clone(), nil
}

func (s *memPrizeStore) UpsertPrizeItem(ctx context.Context, item *models.PrizeItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.items[item.ID] = item.Clone()
	return nil
}

func (s *memPrizeStore) ListPrizeItemsByType(ctx context.Context, prizeType string) ([]*models.PrizeItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []*models.PrizeItem
	for _, item := range s.items {
		if item.Type == prizeType {
			items = append(items, item.Clone())
		}
	}
	return items, nil
}

type memGiveawayStore struct {
	mu        sync.Mutex
	giveaways map[string]*models.Giveaway
	fail      bool
}

func newMemGiveawayStore() *memGiveawayStore {
	return &memGiveawayStore{giveaways: map[string]*models.Giveaway{}}
}

func (s *memGiveawayStore) GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	giveaway, ok := s.giveaways[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return giveaway.Clone(), nil
}

func (s *memGiveawayStore) UpsertGiveaway(ctx context.Context, giveaway *models.Giveaway) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.giveaways[giveaway.ID] = giveaway.Clone()
	return nil
}

func (s *memGiveawayStore) ListActiveGiveaways(ctx context.Context) ([]*models.Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var giveaways []*models.Giveaway
	for _, giveaway := range s.giveaways {
		if giveaway.Active {
			giveaways = append(giveaways, giveaway.Clone())
		}
	}
	return giveaways, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	failUser bool
	users    []int64
	channels []int64
	texts    []string
}

func (n *fakeNotifier) NotifyUser(accountID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failUser {
		return errors.New("blocked")
	}
	n.users = append(n.users, accountID)
	n.texts = append(n.texts, text)
	return nil
}

func (n *fakeNotifier) NotifyChannel(channelID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels = append(n.channels, channelID)
	n.texts = append(n.texts, text)
	return nil
}

type testEnv struct {
	container *do.Injector
	clock     *fakeClock
	accounts  *memAccountStore
	sets      *memQuestSetStore
	prizes    *memPrizeStore
	giveaways *memGiveawayStore
	notifier  *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		clock:     newFakeClock(),
		accounts:  newMemAccountStore(),
		sets:      newMemQuestSetStore(),
		prizes:    newMemPrizeStore(),
		giveaways: newMemGiveawayStore(),
		notifier:  &fakeNotifier{},
	}
	env.container = newServiceContainer(env, 1)
	return env
}

// fork builds a second service container over the same stores, clock
// and notifier, standing in for another binary of the deployment
// working against the same database.
func (env *testEnv) fork(t *testing.T) *testEnv {
	t.Helper()

	other := &testEnv{
		clock:     env.clock,
		accounts:  env.accounts,
		sets:      env.sets,
		prizes:    env.prizes,
		giveaways: env.giveaways,
		notifier:  env.notifier,
	}
	other.container = newServiceContainer(other, 2)
	return other
}

func newServiceContainer(env *testEnv, rngSeed int64) *do.Injector {
	injector := do.New()
	do.ProvideValue[Clock](injector, env.clock)
	do.ProvideValue[AccountStore](injector, env.accounts)
	do.ProvideValue[QuestSetStore](injector, env.sets)
	do.ProvideValue[PrizeStore](injector, env.prizes)
	do.ProvideValue[GiveawayStore](injector, env.giveaways)
	do.ProvideValue[Notifier](injector, env.notifier)
	do.ProvideValue[caching.Cache](injector, nopCache{})
	do.ProvideNamedValue(injector, "rng", rand.New(rand.NewSource(rngSeed)))

	do.Provide(injector, NewServiceLedger)
	do.Provide(injector, NewServiceInventory)
	do.Provide(injector, NewServiceQuest)
	do.Provide(injector, NewServiceGiveaway)

	return injector
}

func (env *testEnv) ledger(t *testing.T) *ServiceLedger {
	t.Helper()
	service, err := do.Invoke[*ServiceLedger](env.container)
	if err != nil {
		t.Fatalf("invoke ledger: %v", err)
	}
	return service
}

func (env *testEnv) inventory(t *testing.T) *ServiceInventory {
	t.Helper()
	service, err := do.Invoke[*ServiceInventory](env.container)
	if err != nil {
		t.Fatalf("invoke inventory: %v", err)
	}
	return service
}

func (env *testEnv) quest(t *testing.T) *ServiceQuest {
	t.Helper()
	service, err := do.Invoke[*ServiceQuest](env.container)
	if err != nil {
		t.Fatalf("invoke quest: %v", err)
	}
	return service
}

func (env *testEnv) giveaway(t *testing.T) *ServiceGiveaway {
	t.Helper()
	service, err := do.Invoke[*ServiceGiveaway](env.container)
	if err != nil {
		t.Fatalf("invoke giveaway: %v", err)
	}
	return service
}
