package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	hrmpersistence "github.com/velora-hq/velora-hcm/modules/hrm/infrastructure/persistence"
	lifecyclepersistence "github.com/velora-hq/velora-hcm/modules/lifecycle/infrastructure/persistence"
	lifecycleservices "github.com/velora-hq/velora-hcm/modules/lifecycle/services"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/configuration"
	"github.com/velora-hq/velora-hcm/pkg/eventbus"
)

// One-shot sweep over due change requests, intended for external cron.
func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	poolCtx, cancelPool := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPool()
	pool, err := pgxpool.New(poolCtx, conf.Database.Opts)
	if err != nil {
		logger.WithError(err).Fatal("failed to create database pool")
	}
	defer pool.Close()

	requests := lifecyclepersistence.NewChangeRequestRepository()
	employees := hrmpersistence.NewEmployeeRepository()
	audit := lifecycleservices.NewAuditRecorder(lifecyclepersistence.NewAuditLogRepository())
	notifier := lifecycleservices.NewNotificationEmitter(
		lifecyclepersistence.NewNotificationRepository(), eventbus.NewEventPublisher(logger),
	)

	applier := lifecycleservices.NewApplierService(requests, employees, notifier, audit)
	scheduler := lifecycleservices.NewSchedulerService(
		requests, applier, conf.Lifecycle.SweepInterval, conf.Lifecycle.SweepBatchSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := scheduler.RunSweep(composables.WithPool(ctx, pool))
	if err != nil {
		logger.WithError(err).Fatal("sweep failed")
	}
	logger.WithFields(map[string]any{
		"due":             stats.Due,
		"applied":         stats.Applied,
		"already_applied": stats.AlreadyApplied,
		"failed":          stats.Failed,
	}).Info("sweep finished")
}
