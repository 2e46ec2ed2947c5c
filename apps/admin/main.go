package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/storage/database"
	sqlxrepos "github.com/stiapanreha-dev/klabu/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	sqlDB, err := database.Open(core.Conf)
	errAndDie(err)
	defer sqlDB.Close()
	errAndDie(sqlDB.Ping())
	db := sqlx.NewDb(sqlDB, "postgres")

	// start CLI
	cli := commandLine{
		db:      sqlDB,
		usrRepo: sqlxrepos.NewUserRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
