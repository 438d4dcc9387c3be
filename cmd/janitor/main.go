package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/aipothole/pothole-api/internal/adapters/nats"
	"github.com/aipothole/pothole-api/internal/adapters/postgres"
	"github.com/aipothole/pothole-api/internal/adapters/storage"
	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/core/usecases"
	"github.com/aipothole/pothole-api/internal/pkg/config"
	"github.com/aipothole/pothole-api/internal/pkg/logging"
	"github.com/aipothole/pothole-api/internal/workflows"
)

// cronWorkflowID is stable so restarts attach to the existing schedule.
const cronWorkflowID = "pothole-maintenance-cron"

// usage: janitor [run-once]
func main() {
	cfg, err := config.Load("potholes-janitor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	potholeRepo := postgres.NewPotholeRepo(db)
	imageRepo := postgres.NewImageRepo(db)
	store := storage.NewSupabase(cfg.Storage.URL, cfg.Storage.Key, cfg.Storage.Bucket)
	potholes := usecases.NewPotholeService(potholeRepo, imageRepo, nil, nil)
	images := usecases.NewImageService(potholeRepo, imageRepo, store, nil)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	if len(os.Args) > 1 && os.Args[1] == "run-once" {
		runOnce(ctx, c, cfg.Temporal.TaskQueue)
		return
	}

	// Deleted potholes: remove their image objects from storage.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, deleted-pothole cleanup relies on the orphan scan", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribePotholeEvents(ctx, "janitor", func(ctx context.Context, event *domain.PotholeEvent) error {
			if event.Kind != domain.EventPotholeDeleted {
				return nil
			}
			slog.Info("removing images of deleted pothole", "pothole_id", event.PotholeID, "images", len(event.ImageIDs))
			return images.DeleteObjects(ctx, event.ImageIDs)
		})
		if err != nil {
			log.Fatalf("subscribe: %v", err)
		}
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.MaintenanceWorkflow)
	w.RegisterActivity(&workflows.MaintenanceActivities{
		Potholes: potholes,
		Images:   images,
	})

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           cronWorkflowID,
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cfg.Temporal.Schedule,
	}, workflows.MaintenanceWorkflow, workflows.MaintenanceInput{})
	if err != nil {
		log.Fatalf("schedule maintenance: %v", err)
	}
	slog.Info("maintenance scheduled", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "schedule", cfg.Temporal.Schedule)

	slog.Info("janitor worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// runOnce starts a single maintenance run and waits for its result. A worker
// must be polling the task queue.
func runOnce(ctx context.Context, c client.Client, taskQueue string) {
	id := "pothole-maintenance-" + uuid.NewString()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: taskQueue,
	}, workflows.MaintenanceWorkflow, workflows.MaintenanceInput{})
	if err != nil {
		log.Fatalf("start maintenance: %v", err)
	}

	var res workflows.MaintenanceResult
	if err := run.Get(ctx, &res); err != nil {
		log.Fatalf("maintenance %s: %v", id, err)
	}
	slog.Info("maintenance finished", "workflow_id", id,
		"expired_potholes", res.ExpiredPotholes, "orphan_images", res.OrphanImages)
}
