// driftrelay is a self-hostable pub/sub relay speaking the same wire
// protocol the driftshare client polls: POST /{topic} to publish,
// GET /{topic}/json to replay retained messages.
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"drift.share/config"
	"drift.share/internal/api"
	"drift.share/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config error")
	}

	st := initStore(cfg)
	defer st.Close()

	router := api.SetupRouter(st, cfg)

	logrus.WithFields(logrus.Fields{
		"addr":      cfg.Addr(),
		"base_url":  cfg.Server.BaseURL,
		"store":     cfg.Store.Type,
		"retention": cfg.Store.Retention,
	}).Info("relay starting")

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logrus.Fatal(server.ListenAndServe())
}

func initStore(cfg *config.Config) store.Store {
	switch cfg.Store.Type {
	case "redis":
		st, err := store.NewRedisStore(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		}, cfg.Store.Retention)
		if err != nil {
			logrus.WithError(err).Fatal("redis connection failed")
		}
		return st
	default:
		return store.NewMemoryStore(cfg.Store.Retention, 30*time.Second)
	}
}
