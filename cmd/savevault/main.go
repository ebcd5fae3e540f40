package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"savevault/internal/config"
	"savevault/internal/engine"
	"savevault/internal/gamestate"
	"savevault/internal/history"
	"savevault/internal/logging"
	"savevault/internal/serializer"
	"savevault/internal/storage"
	"savevault/internal/validation"
)

func main() {
	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	logging.Init()
	log := logging.Component("main")

	cfg := config.Load()
	log.WithField("save_root", cfg.SaveRoot).Info("starting savevault")

	store, err := storage.NewSlotStore(cfg.SaveRoot, logging.Component("storage"))
	if err != nil {
		log.WithError(err).Fatal("failed to open slot store")
	}

	ser := serializer.New()
	validator := validation.New(ser, logging.Component("validation"))

	var hist *history.Store
	if cfg.HistoryPath != "" {
		hist, err = history.Open(cfg.HistoryPath)
		if err != nil {
			log.WithError(err).Warn("operation history disabled")
			hist = nil
		}
	}

	world := gamestate.NewWorld("Player")
	eng, err := engine.New(world, store, ser, validator, hist)
	if err != nil {
		log.WithError(err).Fatal("failed to create persistence engine")
	}
	defer eng.Close()

	if cfg.WatchSaveDir {
		if err := eng.StartWatcher(); err != nil {
			log.WithError(err).Warn("save directory watcher disabled")
		}
	}

	switch {
	case cfg.AutoSaveSchedule != "":
		if err := eng.ConfigureAutoSaveSchedule(cfg.AutoSaveSchedule); err != nil {
			log.WithError(err).Fatal("invalid auto-save schedule")
		}
	case cfg.AutoSaveEnabled:
		if err := eng.ConfigureAutoSave(true, cfg.AutoSaveInterval); err != nil {
			log.WithError(err).Fatal("invalid auto-save configuration")
		}
	}

	slots, err := eng.GetSaveSlots()
	if err != nil {
		log.WithError(err).Warn("failed to list save slots")
	} else {
		log.WithField("slots", len(slots)).Info("save slots available")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
}
