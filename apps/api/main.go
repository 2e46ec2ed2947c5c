package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/stiapanreha-dev/klabu/apps/api/echo"
	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/achievement"
	"github.com/stiapanreha-dev/klabu/core/rating"
	"github.com/stiapanreha-dev/klabu/core/user"
	emailsvc "github.com/stiapanreha-dev/klabu/services/email"
	logsvc "github.com/stiapanreha-dev/klabu/services/logger"
	"github.com/stiapanreha-dev/klabu/storage/database"
	sqlxrepos "github.com/stiapanreha-dev/klabu/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!(core.Conf.Debug || core.Conf.TestMode))

	if err := run(logger); err != nil {
		logger.Fatal("could not start server", err)
	}
}

func run(logger core.Logger) error {
	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return err
	}
	sqlDB, err := database.Open(core.Conf)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err = database.Migrate(sqlDB); err != nil {
		return err
	}
	db := sqlx.NewDb(sqlDB, "postgres")

	// set up validators
	validate, translator := core.NewValidator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	achievement.RegisterValidators(validate, translator)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	achRepo := sqlxrepos.NewAchievementRepository(db)
	ratingSvc := rating.NewService(sqlxrepos.NewRatingRepository(db), achRepo)
	achSvc := achievement.NewService(achRepo, ratingSvc)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:        core.Conf.Server.Address(),
			UserSvc:        usrSvc,
			AchievementSvc: achSvc,
			RatingSvc:      ratingSvc,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
		},
	)

	go app.Start()

	// graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Stop(ctx)
}
