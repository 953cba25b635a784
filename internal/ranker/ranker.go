// Package ranker classifies queued tasks by running them through the model
// pool itself: the model is asked to emit a priority label and a redacted
// copy of the input. Ranking is best-effort; a task is never dropped
// because classification failed.
package ranker

import (
	"context"
	"strings"
	"time"

	"granville/internal/callback"
	"granville/internal/model"
	"granville/internal/pool"
	"granville/internal/queue"
	"granville/pkg/constants"
	"granville/pkg/logger"

	"go.uber.org/zap"
)

// idleSleep is the poll interval when the unranked queue is empty.
const idleSleep = 10 * time.Millisecond

// promptHeader is prepended to the task payload. The model is asked for a
// PRIORITY line and a REDACTED line; only the PRIORITY line is consumed.
// The raw payload, not the redacted text, is what the worker receives.
// The wording of the opening sentence matters: nothing in the first 64
// bytes may contain a priority token as a substring, or a backend that
// echoes its prompt would misclassify every task.
const promptHeader = "Classify the urgency of this task and redact personal data.\n" +
	"Respond with exactly two lines:\n" +
	"PRIORITY: one of CRITICAL, HIGH, NORMAL, LOW\n" +
	"REDACTED: the task text with PII replaced by [EMAIL], [PHONE], [SSN], [NAME], [ADDRESS], [CARD]\n" +
	"\nTask: "

// parseWindow is how much of the response is scanned for a priority token.
const parseWindow = 64

// Ranker consumes the unranked queue and feeds the ranked queue.
type Ranker struct {
	unranked  *queue.Unranked
	ranked    *queue.Ranked
	pool      *pool.Pool
	maxTokens int
}

// New creates a ranker over the given queues and pool.
func New(unranked *queue.Unranked, ranked *queue.Ranked, p *pool.Pool, maxTokens int) *Ranker {
	if maxTokens <= 0 {
		maxTokens = constants.RankingMaxTokens
	}
	return &Ranker{unranked: unranked, ranked: ranked, pool: p, maxTokens: maxTokens}
}

// Name implements jobs.Loop.
func (r *Ranker) Name() string { return "ranker" }

// Run is the classification loop. It exits at the loop head once ctx is
// cancelled; an in-flight classification is finished first.
func (r *Ranker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task := r.unranked.Pop()
		if task == nil {
			time.Sleep(idleSleep)
			continue
		}
		r.rank(task)
	}
}

// rank classifies one task and moves it to the ranked queue.
func (r *Ranker) rank(task *model.UnrankedTask) {
	priority := r.classify(task.Text)

	if err := r.ranked.Push(task.Ranked(priority)); err != nil {
		token := constants.ErrInternal
		if err == queue.ErrFull {
			token = constants.ErrQueueFull
		}
		logger.Warn("ranked enqueue failed",
			zap.String("task_id", task.ID),
			zap.String("token", token),
			zap.Error(err),
		)
		callback.SendError(task.Callback, task.ID, token)
		return
	}

	logger.Debug("task ranked",
		zap.String("task_id", task.ID),
		zap.String("priority", priority.String()),
	)
}

// classify asks the pool to label the payload. Any failure degrades to
// PriorityNormal.
func (r *Ranker) classify(text string) model.Priority {
	m := r.pool.AcquireLeastBusy("")
	if m == nil {
		logger.Warn("no model available for ranking, defaulting to normal")
		return model.PriorityNormal
	}
	defer r.pool.Release(m)

	response, err := r.pool.Generate(m, promptHeader+text, r.maxTokens)
	if err != nil {
		logger.Warn("ranking inference failed, defaulting to normal", zap.Error(err))
		return model.PriorityNormal
	}
	return ParseResponse(response)
}

// ParseResponse extracts the priority from a classification response. The
// first parseWindow bytes are uppercase-folded and scanned for CRITICAL,
// HIGH, then LOW; the first match wins and anything else is normal. NORMAL
// needs no probe of its own since it is the fallback.
func ParseResponse(response string) model.Priority {
	if len(response) > parseWindow {
		response = response[:parseWindow]
	}
	folded := strings.ToUpper(response)

	switch {
	case strings.Contains(folded, "CRITICAL"):
		return model.PriorityCritical
	case strings.Contains(folded, "HIGH"):
		return model.PriorityHigh
	case strings.Contains(folded, "LOW"):
		return model.PriorityLow
	default:
		return model.PriorityNormal
	}
}
