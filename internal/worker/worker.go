// Package worker implements the dispatch workers: symmetric loops that
// drain the ranked queue in priority order, route each task to a model,
// and deliver the outcome to the task's callback endpoint.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"granville/internal/callback"
	"granville/internal/model"
	"granville/internal/pool"
	"granville/internal/queue"
	"granville/pkg/constants"
	"granville/pkg/logger"
	"granville/pkg/monitoring"
	"granville/pkg/wire"

	"go.uber.org/zap"
)

// idleSleep is the poll interval when the ranked queue is empty.
const idleSleep = 10 * time.Millisecond

// maxWorkers caps the default worker count.
const maxWorkers = 8

// DefaultCount returns the worker count when none is configured:
// one per model, at least one and at most maxWorkers.
func DefaultCount(numModels int) int {
	if numModels < 1 {
		return 1
	}
	if numModels > maxWorkers {
		return maxWorkers
	}
	return numModels
}

// Worker is one dispatch loop. Workers are symmetric; none is bound to a
// particular model.
type Worker struct {
	id               int
	ranked           *queue.Ranked
	pool             *pool.Pool
	maxResponseBytes int
}

// New creates worker number id over the ranked queue and pool.
func New(id int, ranked *queue.Ranked, p *pool.Pool, maxResponseBytes int) *Worker {
	return &Worker{id: id, ranked: ranked, pool: p, maxResponseBytes: maxResponseBytes}
}

// Name implements jobs.Loop.
func (w *Worker) Name() string { return fmt.Sprintf("worker-%d", w.id) }

// Run is the dispatch loop. It exits at the loop head once ctx is
// cancelled; inference in flight is uninterruptible and finished first.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task := w.ranked.PopBest()
		if task == nil {
			time.Sleep(idleSleep)
			continue
		}
		w.handle(task)
	}
}

// handle routes one task through inference and delivers the outcome.
func (w *Worker) handle(task *model.RankedTask) {
	var m *pool.Model
	if task.ModelID != 0 {
		var err error
		m, err = w.pool.AcquireByID(task.ModelID)
		if err != nil {
			logger.Warn("requested model not available",
				zap.String("task_id", task.ID),
				zap.Uint64("model_id", task.ModelID),
			)
			w.fail(task, constants.ErrInternal)
			return
		}
	} else {
		m = w.pool.AcquireLeastBusy("")
		if m == nil {
			logger.Warn("no model available", zap.String("task_id", task.ID))
			w.fail(task, constants.ErrInternal)
			return
		}
	}
	defer w.pool.Release(m)

	start := time.Now()
	response, err := w.pool.Generate(m, task.Text, task.MaxTokens)
	monitoring.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("inference failed",
			zap.String("task_id", task.ID),
			zap.Uint64("model_id", m.ID),
			zap.Error(err),
		)
		w.fail(task, constants.ErrInternal)
		return
	}

	if w.maxResponseBytes > 0 && len(response) > w.maxResponseBytes {
		logger.Warn("response truncated",
			zap.String("task_id", task.ID),
			zap.Int("len", len(response)),
			zap.Int("limit", w.maxResponseBytes),
		)
		response = truncate(response, w.maxResponseBytes)
	}

	toolInput, err := json.Marshal([]string{response})
	if err != nil {
		logger.Error("response encoding failed", zap.String("task_id", task.ID), zap.Error(err))
		w.fail(task, constants.ErrInternal)
		return
	}

	callback.SendResult(task.Callback, &wire.Result{
		ID:            task.ID,
		ModelID:       m.ID,
		ToolID:        constants.ToolChat,
		ToolInputJSON: string(toolInput),
		Priority:      task.Priority.String(),
	})
	monitoring.TasksProcessed.WithLabelValues("success").Inc()

	logger.Info("task completed",
		zap.String("task_id", task.ID),
		zap.Uint64("model_id", m.ID),
		zap.String("priority", task.Priority.String()),
	)
}

func (w *Worker) fail(task *model.RankedTask, token string) {
	callback.SendError(task.Callback, task.ID, token)
	monitoring.TasksProcessed.WithLabelValues("failed").Inc()
}

// truncate cuts s to at most n bytes, backing off to a rune boundary so
// the result stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
