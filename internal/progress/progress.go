// Package progress derives a project's completion percentage from its task set.
package progress

import (
	"context"
	"math"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Result is the recomputed progress of one project.
type Result struct {
	ProjectID          uuid.UUID `json:"project_id"`
	ProgressPercentage float64   `json:"progress_percentage"`
}

// Calculate returns 100*completed/total rounded half-up to two decimals, or 0 without tasks.
// In-progress tasks earn no partial credit.
func Calculate(total, completed int64) float64 {
	if total <= 0 {
		return 0
	}
	// Scale before dividing so exact halves (e.g. 1/32 -> 312.5) are not lost to float error.
	return math.Round(float64(completed)*10000/float64(total)) / 100
}

type taskCounts struct {
	Total     int64
	Completed int64
}

// Recompute recounts the project's tasks through db and persists the result on the project row.
// Pass the transaction that mutated the task set so the count sees that mutation.
func Recompute(ctx context.Context, db *gorm.DB, projectID uuid.UUID) (Result, error) {
	var counts taskCounts
	if err := db.WithContext(ctx).
		Model(&entity.Task{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed", string(entity.TaskStatusCompleted)).
		Where("project_id = ?", projectID).
		Scan(&counts).Error; err != nil {
		return Result{}, err
	}

	pct := Calculate(counts.Total, counts.Completed)
	if err := db.WithContext(ctx).
		Model(&entity.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("progress_percentage", pct).Error; err != nil {
		return Result{}, err
	}

	metrics.ProgressRecomputationsTotal.Inc()
	return Result{ProjectID: projectID, ProgressPercentage: pct}, nil
}

// RecomputeAll rebuilds the cached progress of every project, one transaction per project.
func RecomputeAll(ctx context.Context, db *gorm.DB) ([]Result, error) {
	var ids []uuid.UUID
	if err := db.WithContext(ctx).Model(&entity.Project{}).Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		var res Result
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = Recompute(ctx, tx, id)
			return err
		})
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	return results, nil
}
