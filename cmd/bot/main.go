package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"coindrop/internal/datastore"
	"coindrop/internal/models"
	"coindrop/internal/pkg/caching"
	"coindrop/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	tele "gopkg.in/telebot.v3"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "bot",
		Commands: []*cli.Command{
			commandBot(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandBot() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the telegram bot",
		Action: func(c *cli.Context) error {
			vs, err := env.EnvsRequired(
				"BOT_TOKEN",
				"DB_DSN",
			)
			if err != nil {
				return err
			}

			container := NewContainer(vs)

			pref := tele.Settings{
				Token:  vs["BOT_TOKEN"],
				Poller: &tele.LongPoller{Timeout: 10 * time.Second},
			}

			b, err := tele.NewBot(pref)
			if err != nil {
				return err
			}

			b.Handle("/start", handleStart(container))
			b.Handle("/balance", handleBalance(container))
			b.Handle("/quests", handleQuests(container))
			b.Handle(tele.OnText, handleMessageActivity(container))

			log.Println("Bot started")
			b.Start()
			return nil
		},
	}
}

func authFromSender(sender *tele.User) *models.AccountFromAuth {
	return &models.AccountFromAuth{
		ID:        sender.ID,
		Username:  sender.Username,
		FirstName: sender.FirstName,
		IsPremium: sender.IsPremium,
	}
}

func handleStart(container *do.Injector) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := context.Background()

		ledger, err := do.Invoke[*services.ServiceLedger](container)
		if err != nil {
			return err
		}

		if _, err := ledger.FindOrCreateAccount(ctx, authFromSender(c.Sender())); err != nil {
			log.Println(err)
		}

		serviceConfig, err := do.Invoke[*services.ServiceConfig](container)
		if err != nil {
			return err
		}

		text, _ := serviceConfig.GetStringConfig(ctx, services.CONFIG_TEXT_NEW_ACCOUNT, "🪙 Welcome to Coindrop!")
		return c.Send(text, &tele.SendOptions{ParseMode: tele.ModeHTML})
	}
}

func handleBalance(container *do.Injector) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := context.Background()

		ledger, err := do.Invoke[*services.ServiceLedger](container)
		if err != nil {
			return err
		}

		account, err := ledger.FindOrCreateAccount(ctx, authFromSender(c.Sender()))
		if err != nil {
			return c.Send("Something went wrong, please try again later.")
		}

		return c.Send(fmt.Sprintf("💰 Balance: %d coins\nTotal earned: %d\nTotal spent: %d", account.Balance, account.TotalEarned, account.TotalSpent))
	}
}

func handleQuests(container *do.Injector) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := context.Background()

		ledger, err := do.Invoke[*services.ServiceLedger](container)
		if err != nil {
			return err
		}

		account, err := ledger.FindOrCreateAccount(ctx, authFromSender(c.Sender()))
		if err != nil {
			return c.Send("Something went wrong, please try again later.")
		}

		serviceQuest, err := do.Invoke[*services.ServiceQuest](container)
		if err != nil {
			return err
		}

		quests, err := serviceQuest.ListQuests(ctx, account.ID)
		if err != nil {
			return c.Send("Something went wrong, please try again later.")
		}

		var lines []string
		lines = append(lines, "📋 Today's quests:")
		for _, quest := range quests {
			status := fmt.Sprintf("%d/%d", quest.CurrentProgress, quest.TargetValue)
			if quest.Completed {
				status = "✅"
			}
			lines = append(lines, fmt.Sprintf("%s %s — %s (%d coins)", quest.Emoji, quest.Title, status, quest.CoinReward))
		}

		return c.Send(strings.Join(lines, "\n"))
	}
}

// Every plain group message counts toward message-activity quests.
func handleMessageActivity(container *do.Injector) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || sender.IsBot {
			return nil
		}

		ctx := context.Background()

		ledger, err := do.Invoke[*services.ServiceLedger](container)
		if err != nil {
			return nil
		}

		account, err := ledger.FindOrCreateAccount(ctx, authFromSender(sender))
		if err != nil {
			log.Println(err)
			return nil
		}

		serviceQuest, err := do.Invoke[*services.ServiceQuest](container)
		if err != nil {
			return nil
		}

		if _, err := serviceQuest.RecordProgress(ctx, account.ID, models.QUEST_TYPE_MESSAGE, 1); err != nil {
			log.Println(err)
		}
		return nil
	}
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(os.Getenv("DB_DSN")),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		db := bun.NewDB(sqldb, pgdialect.New())
		return db, nil
	})

	do.ProvideNamed(injector, "redis-db", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_DB"),
		})
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_CACHE"),
		})
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_MUTEX"),
		})
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		return redsync.New(pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (services.Clock, error) {
		return services.NewClock(), nil
	})

	do.ProvideNamed(injector, "rng", func(i *do.Injector) (*rand.Rand, error) {
		//nolint:gosec
		return rand.New(rand.NewSource(time.Now().UnixNano())), nil
	})

	do.Provide(injector, func(i *do.Injector) (services.AccountStore, error) {
		db, err := do.Invoke[*bun.DB](i)
		if err != nil {
			return nil, err
		}
		return datastore.NewAccountPG(db), nil
	})

	do.Provide(injector, func(i *do.Injector) (services.QuestSetStore, error) {
		db, err := do.Invoke[*bun.DB](i)
		if err != nil {
			return nil, err
		}
		return datastore.NewQuestSetPG(db), nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.Bot, error) {
		return services.NewBot(vs["BOT_TOKEN"])
	})

	do.Provide(injector, func(i *do.Injector) (services.Notifier, error) {
		bot, err := do.Invoke[*services.Bot](i)
		if err != nil {
			return nil, err
		}
		return services.NewBotNotifier(bot), nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceConfig, error) {
		return services.NewServiceConfig(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceLedger, error) {
		return services.NewServiceLedger(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceQuest, error) {
		return services.NewServiceQuest(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceLeaderboard, error) {
		return services.NewServiceLeaderboard(injector)
	})

	return injector
}
