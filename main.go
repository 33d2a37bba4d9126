package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/prismateams/mailroom/config"
	"github.com/prismateams/mailroom/internal/database"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/repository"
	"github.com/prismateams/mailroom/server"
	"github.com/prismateams/mailroom/services"
)

func main() {
	app := &cli.App{
		Name:  "mailroom",
		Usage: "IMAP mailbox synchronization service",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(c *cli.Context) error {
					_, db, err := setup()
					if err != nil {
						return err
					}
					if err := repository.MigrateDB(db); err != nil {
						return err
					}
					log.Println("Database migration completed successfully")
					return nil
				},
			},
			{
				Name:  "server",
				Usage: "Start the application server",
				Action: func(c *cli.Context) error {
					cfg, db, err := setup()
					if err != nil {
						return err
					}

					log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
					log.Println("Mailroom starting up...")

					srv, err := server.NewServer(cfg, db)
					if err != nil {
						return err
					}
					return srv.Run()
				},
			},
			{
				Name:  "sync",
				Usage: "Run a single sync pass and exit",
				Action: func(c *cli.Context) error {
					cfg, db, err := setup()
					if err != nil {
						return err
					}

					appLogger := logger.NewAppLogger(cfg.Logger)
					appLogger.InitLogger()

					repos := repository.InitRepositories(db)
					svcs, err := services.InitServices(cfg, appLogger, repos)
					if err != nil {
						return err
					}

					stats, err := svcs.SyncService.SyncAll(context.Background())
					if err != nil {
						return err
					}
					log.Printf("Sync finished: %s", stats.Summary())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return nil, nil, err
	}

	return cfg, db, nil
}
