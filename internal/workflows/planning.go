package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// PlanInput is the input for TripPlanningWorkflow.
type PlanInput struct {
	UserID      string
	Email       string
	Location    string
	Type        string
	Save        bool
	Name        string
	Description string
}

// PlanOutput is the result of TripPlanningWorkflow. TripID is empty unless
// the plan was saved.
type PlanOutput struct {
	Plan   domain.TripPlan
	TripID string
}

// TripPlanningWorkflow plans a trip and, when in.Save is set, stores it for
// the user.
func TripPlanningWorkflow(ctx workflow.Context, in PlanInput) (*PlanOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting trip planning workflow", "location", in.Location, "type", in.Type)

	planCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 45 * time.Second,
		// Each attempt calls the routing service; one attempt only.
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var plan domain.TripPlan
	if err := workflow.ExecuteActivity(planCtx, PlanTripActivity, in).Get(ctx, &plan); err != nil {
		logger.Warn("planning failed", "error", err)
		return nil, err
	}

	out := &PlanOutput{Plan: plan}
	if !in.Save {
		return out, nil
	}

	saveCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 5,
		},
	})
	if err := workflow.ExecuteActivity(saveCtx, SaveTripActivity, in, plan).Get(ctx, &out.TripID); err != nil {
		logger.Warn("saving planned trip failed", "error", err)
		return nil, err
	}

	logger.Info("Trip planned and saved", "trip_id", out.TripID, "distance_km", plan.TotalDistanceKm)
	return out, nil
}
