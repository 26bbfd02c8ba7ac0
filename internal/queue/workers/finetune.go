package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/distillhq/distillery/internal/finetune"
	"github.com/distillhq/distillery/internal/queue"
	"github.com/distillhq/distillery/internal/registry"
)

type FinetuneWorker struct {
	svc      *finetune.Service
	reg      *registry.Registry // optional
	interval time.Duration
	deadline time.Duration
}

func NewFinetuneWorker(svc *finetune.Service, reg *registry.Registry, interval, deadline time.Duration) *FinetuneWorker {
	return &FinetuneWorker{svc: svc, reg: reg, interval: interval, deadline: deadline}
}

func (w *FinetuneWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.FinetuneRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	slog.Info("running fine-tuning task",
		"train_file", payload.TrainFile, "base_model", payload.BaseModel, "suffix", payload.Suffix)

	regID := w.parseJobID(payload.JobID)

	providerJobID, err := w.svc.Submit(ctx, payload.TrainFile, payload.ValidationFile, payload.BaseModel, payload.Suffix)
	if err != nil {
		w.fail(ctx, regID, err)
		return err
	}
	if regID != nil {
		if err := w.reg.MarkFinetuneRunning(ctx, *regID, providerJobID); err != nil {
			slog.Warn("registry mark finetune failed", "error", err)
		}
	}

	model, err := w.svc.Monitor(ctx, providerJobID, w.interval, w.deadline)
	if err != nil {
		w.fail(ctx, regID, err)
		return err
	}

	if regID != nil {
		if err := w.reg.CompleteFinetune(ctx, *regID, model); err != nil {
			slog.Warn("registry complete finetune failed", "error", err)
		}
		name := payload.ModelName
		if name == "" {
			name = model
		}
		if _, err := w.reg.RegisterModel(ctx, name, model, payload.BaseModel, regID); err != nil {
			slog.Warn("registry register model failed", "error", err)
		}
	}

	slog.Info("fine-tuning task completed", "provider_job_id", providerJobID, "fine_tuned_model", model)
	return nil
}

func (w *FinetuneWorker) parseJobID(raw string) *uuid.UUID {
	if w.reg == nil || raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		slog.Warn("invalid registry job id in payload", "job_id", raw)
		return nil
	}
	return &id
}

func (w *FinetuneWorker) fail(ctx context.Context, regID *uuid.UUID, jobErr error) {
	if regID == nil {
		return
	}
	if err := w.reg.FailFinetune(ctx, *regID, jobErr); err != nil {
		slog.Warn("registry fail finetune failed", "error", err)
	}
}
