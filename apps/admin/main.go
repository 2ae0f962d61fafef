package main

import (
	"log"
	"os"

	"github.com/aulamovil/backend/core"
	"github.com/aulamovil/backend/core/moodle"
	logsvc "github.com/aulamovil/backend/services/logger"
	linkrepos "github.com/aulamovil/backend/storage/links"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	logSvc := logsvc.NewConsoleLogger(logger)
	client := moodle.NewClient(conf, logSvc)

	cli := commandLine{
		moodleSvc: moodle.NewService(conf, logSvc, client),
		links:     linkrepos.NewFileRepository(conf.LinksFile),
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
