package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/copyengine"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/queue"
)

type CopyWorker struct {
	engine *copyengine.Engine
}

func NewCopyWorker(engine *copyengine.Engine) *CopyWorker {
	return &CopyWorker{engine: engine}
}

func (w *CopyWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.TenantCopyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", queue.TypeTenantCopy, err)
	}

	result, err := w.engine.Execute(ctx, payload.Request)
	if err != nil {
		slog.Error("queued tenant copy failed",
			"source", payload.Request.SourceTenantID,
			"target", payload.Request.TargetTenantID,
			"error", err,
		)
		return err
	}

	slog.Info("queued tenant copy done",
		"source", payload.Request.SourceTenantID,
		"target", payload.Request.TargetTenantID,
		"requested_by", payload.RequestedBy,
		"copied", result.Copied,
		"skipped", len(result.Skipped),
		"warnings", len(result.Warnings),
	)
	return nil
}
