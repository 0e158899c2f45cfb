package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"coindrop/internal/datastore"
	"coindrop/internal/models"
	"coindrop/internal/services"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
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
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableAccount(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableTransaction(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableQuestSet(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTablePrizeItem(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableGiveaway(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableConfig(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

// insert default configs to db
func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-config",
		Description: "Insert default configs to db",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			configs := []models.Config{
				{Key: services.CONFIG_SERVER_MODE, Value: "production"},
				{Key: services.CONFIG_EARNER_LEADERBOARD_LIMIT, Value: "20"},
				{Key: services.CONFIG_CRONJOB_TIME_LEADERBOARD, Value: "0 0 * * 1"},
				{Key: services.CONFIG_GIVEAWAY_CHANNEL_ID, Value: ""},
				{Key: services.CONFIG_TEXT_NEW_ACCOUNT, Value: `🪙 Welcome to Coindrop!

Complete daily quests to earn coins, climb the earner leaderboard and enter giveaways for real prizes.

🚀 Check /quests to see what's waiting for you today.`},
			}

			for _, config := range configs {
				if err := datastore.UpsertConfig(ctx, db, &config); err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
