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

	"github.com/velora-hq/velora-hcm/internal/server"
	corepersistence "github.com/velora-hq/velora-hcm/modules/core/infrastructure/persistence"
	corecontrollers "github.com/velora-hq/velora-hcm/modules/core/presentation/controllers"
	coreservices "github.com/velora-hq/velora-hcm/modules/core/services"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	hrmpersistence "github.com/velora-hq/velora-hcm/modules/hrm/infrastructure/persistence"
	hrmcontrollers "github.com/velora-hq/velora-hcm/modules/hrm/presentation/controllers"
	hrmservices "github.com/velora-hq/velora-hcm/modules/hrm/services"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/entities/notification"
	lifecyclepersistence "github.com/velora-hq/velora-hcm/modules/lifecycle/infrastructure/persistence"
	lifecyclecontrollers "github.com/velora-hq/velora-hcm/modules/lifecycle/presentation/controllers"
	lifecycleservices "github.com/velora-hq/velora-hcm/modules/lifecycle/services"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/configuration"
	"github.com/velora-hq/velora-hcm/pkg/eventbus"
	pkgserver "github.com/velora-hq/velora-hcm/pkg/server"
)

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

	bus := eventbus.NewEventPublisher(logger)
	bus.Subscribe(func(event *employee.CreatedEvent) {
		logger.WithField("employee_id", event.Result.ID().String()).Info("employee created")
	})
	bus.Subscribe(func(event *notification.CreatedEvent) {
		logger.WithFields(map[string]any{
			"subject_id": event.Result.SubjectID.String(),
			"category":   string(event.Result.Category),
		}).Info("notification emitted")
	})

	directory := coreservices.NewDirectoryService(
		corepersistence.NewUserRepository(),
		corepersistence.NewTenantRepository(),
	)

	employees := hrmpersistence.NewEmployeeRepository()
	terminations := hrmpersistence.NewTerminationRepository()
	flags := hrmpersistence.NewRehireFlagRepository()

	employeeService := hrmservices.NewEmployeeService(employees, bus)
	offboarding := hrmservices.NewOffboardingService(employees, terminations, flags)

	requests := lifecyclepersistence.NewChangeRequestRepository()
	auditLogs := lifecyclepersistence.NewAuditLogRepository()
	notifications := lifecyclepersistence.NewNotificationRepository()
	audit := lifecycleservices.NewAuditRecorder(auditLogs)
	notifier := lifecycleservices.NewNotificationEmitter(notifications, bus)
	auditQuery := lifecycleservices.NewAuditLogService(auditLogs)
	notificationFeed := lifecycleservices.NewNotificationService(notifications)

	eligibility := lifecycleservices.NewEligibilityService(
		employees, flags, terminations, conf.Lifecycle.RehireCoolOffDays,
	)
	applier := lifecycleservices.NewApplierService(requests, employees, notifier, audit)
	scheduler := lifecycleservices.NewSchedulerService(
		requests, applier, conf.Lifecycle.SweepInterval, conf.Lifecycle.SweepBatchSize,
	)
	workflow := lifecycleservices.NewWorkflowService(
		requests, employees, eligibility, scheduler,
		directory, lifecycleservices.RoleGatesFromOptions(&conf.Lifecycle),
		audit, notifier,
	)

	serverInstance := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Pool:          pool,
		Controllers: []pkgserver.Controller{
			corecontrollers.NewCoreAPIController(directory),
			hrmcontrollers.NewHRMAPIController(employeeService, offboarding, directory),
			lifecyclecontrollers.NewLifecycleAPIController(workflow, scheduler, notificationFeed, auditQuery, directory),
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if conf.Lifecycle.SweepEnabled {
		go scheduler.Start(composables.WithPool(ctx, pool))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", conf.ServerAddress).Info("server listening")
		errCh <- serverInstance.Start(conf.ServerAddress)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Fatal("server failed")
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := serverInstance.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown failed")
		}
	}
}
