package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/aulamovil/backend/apps/api/echo"
	"github.com/aulamovil/backend/core"
	"github.com/aulamovil/backend/core/moodle"
	googlesvc "github.com/aulamovil/backend/services/google"
	logsvc "github.com/aulamovil/backend/services/logger"
	linkrepos "github.com/aulamovil/backend/storage/links"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatal(err)
	}

	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up services
	client := moodle.NewClient(conf, logger)
	moodleSvc := moodle.NewService(conf, logger, client)
	verifier := googlesvc.NewVerifier(conf)
	links := linkrepos.NewFileRepository(conf.LinksFile)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		conf.Address,
		shutdown,
		&echoapi.Deps{
			Conf:   conf,
			Logger: logger,
			Moodle: moodleSvc,
			Google: verifier,
			Links:  links,
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("%s listening on %s", conf.AppName, conf.Address))
		serverErrors <- app.Start()
	}()

	select {
	case err := <-serverErrors:
		logger.Fatal("server error", err)
	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("shutting down on %v", sig))
		ctx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			logger.Error("graceful shutdown failed", err)
		}
	}
}
