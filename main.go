package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"pennylane-sync-service/api"
	"pennylane-sync-service/client"
	_ "pennylane-sync-service/docs"
	"pennylane-sync-service/logger"
	"pennylane-sync-service/service/batch"
	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/database"
	"pennylane-sync-service/service/distributed_lock"
	"pennylane-sync-service/service/events"
	"pennylane-sync-service/service/history"
	"pennylane-sync-service/service/mapper"
	"pennylane-sync-service/service/metrics"
	"pennylane-sync-service/service/scheduler"
	"pennylane-sync-service/service/store"
	"pennylane-sync-service/service/syncer"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

var (
	PORT         = 80
	BASE_CONTEXT = ""
)

func init() {
	if val := os.Getenv("LISTEN_PORT"); val != "" {
		PORT, _ = strconv.Atoi(val)
	}

	if val := os.Getenv("BASE_CONTEXT"); val != "" {
		BASE_CONTEXT = val
	}
}

// @title Pennylane Sync Service API
// @version 1.0
// @description Synchronizes storefront customers, products and orders to the Pennylane accounting API
// @BasePath /
func main() {
	logger.InitLogger()

	db, err := database.Open()
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("error: %v", err)
	}

	configService := config.NewConfigService(db)
	st := store.NewStore(db)
	apiClient := client.NewClient(configService)
	historyService := history.NewHistoryService(db, configService)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(registry)

	// Redis is optional; without it locking degrades to single-instance mode.
	var lockExecutor *distributed_lock.LockExecutor
	if redisLock, err := distributed_lock.NewRedisLock(); err == nil {
		lockExecutor = distributed_lock.NewLockExecutor(redisLock)
		defer redisLock.Close()
	} else {
		lockExecutor = distributed_lock.NewLockExecutor(nil)
	}

	syncers := syncer.NewSyncers(&syncer.Dependencies{
		Store:     st,
		API:       apiClient,
		Config:    configService,
		Validator: mapper.NewValidator(),
		History:   historyService,
		Metrics:   collector,
		Locks:     lockExecutor,
	})
	batchDriver := batch.NewDriver(st, syncers, configService, historyService, collector)

	schedulerService := scheduler.NewSchedulerService(st, syncers, configService, historyService, lockExecutor)
	if err := schedulerService.Start(); err != nil {
		log.Fatalf("error: %v", err)
	}
	defer schedulerService.Stop()

	if err := historyService.StartScheduledPurge(); err != nil {
		log.Fatalf("error: %v", err)
	}
	defer historyService.StopScheduledPurge()

	dispatcher := events.NewDispatcher(st)
	if consumer := events.NewKafkaConsumerFromEnv(dispatcher); consumer != nil {
		consumer.Start()
		defer consumer.Stop()
	}
	if consumer := events.NewMQTTConsumerFromEnv(dispatcher); consumer != nil {
		if err := consumer.Start(); err != nil {
			log.Fatalf("error: %v", err)
		}
		defer consumer.Stop()
	}

	deps := &api.Dependencies{
		Store:      st,
		Config:     configService,
		Syncers:    syncers,
		Batch:      batchDriver,
		History:    historyService,
		Dispatcher: dispatcher,
		Credential: apiClient,
	}

	mux := chi.NewRouter()
	if BASE_CONTEXT != "" {
		mux.Route(BASE_CONTEXT, func(r chi.Router) {
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux, deps)
			r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux, deps)
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(PORT), mux)
	if err := s.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("error: %v", err)
	}
}
