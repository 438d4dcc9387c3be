package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Activity names registered by the janitor worker.
const (
	ActivityPurgeExpiredPotholes = "PurgeExpiredPotholes"
	ActivityPurgeOrphanImages    = "PurgeOrphanImages"
)

const (
	defaultBatchSize = 500
	// maxPurgeRounds bounds one run; leftovers are picked up by the next run.
	maxPurgeRounds = 20
)

// MaintenanceInput is the input for the maintenance workflow.
type MaintenanceInput struct {
	BatchSize int
	// SkipOrphans disables the bucket scan.
	SkipOrphans bool
}

// MaintenanceResult reports what one run removed.
type MaintenanceResult struct {
	ExpiredPotholes int
	OrphanImages    int
}

// MaintenanceWorkflow deletes expired potholes in batches and then removes
// stored image content whose row no longer exists. It runs on a cron schedule.
func MaintenanceWorkflow(ctx workflow.Context, input MaintenanceInput) (MaintenanceResult, error) {
	logger := workflow.GetLogger(ctx)
	batch := input.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	})

	var result MaintenanceResult
	for round := 0; round < maxPurgeRounds; round++ {
		var n int
		if err := workflow.ExecuteActivity(ctx, ActivityPurgeExpiredPotholes, batch).Get(ctx, &n); err != nil {
			return result, err
		}
		result.ExpiredPotholes += n
		if n < batch {
			break
		}
	}
	logger.Info("expired potholes purged", "count", result.ExpiredPotholes)

	if input.SkipOrphans {
		return result, nil
	}

	// Orphan cleanup is best effort; the next run retries.
	var n int
	if err := workflow.ExecuteActivity(ctx, ActivityPurgeOrphanImages, batch).Get(ctx, &n); err != nil {
		logger.Warn("orphan image purge failed", "error", err)
		return result, nil
	}
	result.OrphanImages = n
	logger.Info("orphan images purged", "count", n)
	return result, nil
}
