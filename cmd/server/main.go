package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-tenancy"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("tenancy"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := tenancy.LoadConfig()
	if err != nil {
		lgr.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if os.Getenv("DEBUG") != "" {
		fmt.Println(print.MaybePrettyJSON(cfg))
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		lgr.Error("database error", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := tenancy.NewRepositoryManager(db)
	repo.MustValidate()

	provider := tenancy.NewUserProvider(repo.Users()).
		WithLogger(lgr.GetLogger("provider"))

	auth := tenancy.NewAuthenticator(provider, cfg).
		WithLogger(lgr.GetLogger("auth"))

	controller := tenancy.NewHTTPController(repo, auth).
		WithLogger(lgr.GetLogger("http"))

	app := fiber.New(fiber.Config{
		AppName: "go-tenancy",
	})

	tenancy.RegisterRoutes(app, controller, cfg, auth.TokenService())

	go func() {
		if err := app.Listen(cfg.ServerAddress); err != nil {
			lgr.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		lgr.Error("shutdown error", "error", err)
	}
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "could not open database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "could not enable foreign keys")
	}

	if err := tenancy.CreateSchema(ctx, db); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "could not create schema")
	}

	return db, nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
