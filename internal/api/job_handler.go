package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/job"
)

// JobRunner runs a registered job on demand.
type JobRunner interface {
	RunNow(ctx context.Context, name string) (job.Result, error)
}

// JobHandler exposes the reconciliation jobs over HTTP so operators and
// external schedulers can trigger them.
type JobHandler struct {
	runner JobRunner
	logger *slog.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(runner JobRunner, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{runner: runner, logger: logger.With("component", "job_handler")}
}

// RunJob handles POST /jobs/{name} requests
func (h *JobHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	result, err := h.runner.RunNow(r.Context(), name)
	if err != nil {
		HandleAPIError(w, r, err, "Job run failed")
		return
	}

	h.logger.Info("job triggered over HTTP",
		slog.String("job", name),
		slog.Int("processed", result.Processed),
		slog.String("trace_id", shared.GetTraceID(r.Context())))
	shared.RespondWithJSON(w, r, http.StatusOK, jobResultToResponse(result))
}
