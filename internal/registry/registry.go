// Package registry persists pipeline metadata: batch runs, fine-tuning
// jobs, registered models, and evaluation results. Every pipeline
// component works without it; a nil *Registry disables persistence.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/distillhq/distillery/internal/models"
)

type Registry struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Registry {
	return &Registry{db: db}
}

func (r *Registry) CreateRun(ctx context.Context, kind, model string) (*models.BatchRun, error) {
	var run models.BatchRun
	err := r.db.QueryRow(ctx,
		`INSERT INTO batch_runs (id, kind, model, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, kind, model, job_id, input_file, output_file, dataset_file, status, record_count, error, created_at, completed_at`,
		uuid.New(), kind, model, models.RunStatusPending,
	).Scan(&run.ID, &run.Kind, &run.Model, &run.JobID, &run.InputFile, &run.OutputFile,
		&run.DatasetFile, &run.Status, &run.RecordCount, &run.Error, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &run, nil
}

func (r *Registry) MarkRunRunning(ctx context.Context, id uuid.UUID, jobID, inputFile string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE batch_runs SET status = $2, job_id = $3, input_file = $4 WHERE id = $1`,
		id, models.RunStatusRunning, jobID, inputFile,
	)
	if err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}
	return nil
}

func (r *Registry) CompleteRun(ctx context.Context, id uuid.UUID, outputFile, datasetFile string, recordCount int) error {
	now := time.Now()
	_, err := r.db.Exec(ctx,
		`UPDATE batch_runs SET status = $2, output_file = $3, dataset_file = $4, record_count = $5, completed_at = $6 WHERE id = $1`,
		id, models.RunStatusSucceeded, outputFile, datasetFile, recordCount, now,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

func (r *Registry) FailRun(ctx context.Context, id uuid.UUID, runErr error) error {
	now := time.Now()
	_, err := r.db.Exec(ctx,
		`UPDATE batch_runs SET status = $2, error = $3, completed_at = $4 WHERE id = $1`,
		id, models.RunStatusFailed, runErr.Error(), now,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

func (r *Registry) GetRun(ctx context.Context, id uuid.UUID) (*models.BatchRun, error) {
	var run models.BatchRun
	err := r.db.QueryRow(ctx,
		`SELECT id, kind, model, job_id, input_file, output_file, dataset_file, status, record_count, error, created_at, completed_at
		 FROM batch_runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.Kind, &run.Model, &run.JobID, &run.InputFile, &run.OutputFile,
		&run.DatasetFile, &run.Status, &run.RecordCount, &run.Error, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

func (r *Registry) ListRuns(ctx context.Context) ([]models.BatchRun, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, kind, model, job_id, input_file, output_file, dataset_file, status, record_count, error, created_at, completed_at
		 FROM batch_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.BatchRun
	for rows.Next() {
		var run models.BatchRun
		if err := rows.Scan(&run.ID, &run.Kind, &run.Model, &run.JobID, &run.InputFile, &run.OutputFile,
			&run.DatasetFile, &run.Status, &run.RecordCount, &run.Error, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *Registry) CreateFinetuneJob(ctx context.Context, baseModel, suffix, trainFile, validationFile string) (*models.FinetuneJob, error) {
	var job models.FinetuneJob
	err := r.db.QueryRow(ctx,
		`INSERT INTO finetune_jobs (id, base_model, suffix, train_file, validation_file, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, provider_job_id, base_model, suffix, train_file, validation_file, status, fine_tuned_model, error, created_at, completed_at`,
		uuid.New(), baseModel, suffix, trainFile, validationFile, models.RunStatusPending,
	).Scan(&job.ID, &job.ProviderJobID, &job.BaseModel, &job.Suffix, &job.TrainFile, &job.ValidationFile,
		&job.Status, &job.FineTunedModel, &job.Error, &job.CreatedAt, &job.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("insert finetune job: %w", err)
	}
	return &job, nil
}

func (r *Registry) MarkFinetuneRunning(ctx context.Context, id uuid.UUID, providerJobID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE finetune_jobs SET status = $2, provider_job_id = $3 WHERE id = $1`,
		id, models.RunStatusRunning, providerJobID,
	)
	if err != nil {
		return fmt.Errorf("mark finetune running: %w", err)
	}
	return nil
}

func (r *Registry) CompleteFinetune(ctx context.Context, id uuid.UUID, fineTunedModel string) error {
	now := time.Now()
	_, err := r.db.Exec(ctx,
		`UPDATE finetune_jobs SET status = $2, fine_tuned_model = $3, completed_at = $4 WHERE id = $1`,
		id, models.RunStatusSucceeded, fineTunedModel, now,
	)
	if err != nil {
		return fmt.Errorf("complete finetune: %w", err)
	}
	return nil
}

func (r *Registry) FailFinetune(ctx context.Context, id uuid.UUID, jobErr error) error {
	now := time.Now()
	_, err := r.db.Exec(ctx,
		`UPDATE finetune_jobs SET status = $2, error = $3, completed_at = $4 WHERE id = $1`,
		id, models.RunStatusFailed, jobErr.Error(), now,
	)
	if err != nil {
		return fmt.Errorf("fail finetune: %w", err)
	}
	return nil
}

func (r *Registry) GetFinetuneJob(ctx context.Context, id uuid.UUID) (*models.FinetuneJob, error) {
	var job models.FinetuneJob
	err := r.db.QueryRow(ctx,
		`SELECT id, provider_job_id, base_model, suffix, train_file, validation_file, status, fine_tuned_model, error, created_at, completed_at
		 FROM finetune_jobs WHERE id = $1`, id,
	).Scan(&job.ID, &job.ProviderJobID, &job.BaseModel, &job.Suffix, &job.TrainFile, &job.ValidationFile,
		&job.Status, &job.FineTunedModel, &job.Error, &job.CreatedAt, &job.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("get finetune job: %w", err)
	}
	return &job, nil
}

func (r *Registry) ListFinetuneJobs(ctx context.Context) ([]models.FinetuneJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, provider_job_id, base_model, suffix, train_file, validation_file, status, fine_tuned_model, error, created_at, completed_at
		 FROM finetune_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list finetune jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.FinetuneJob
	for rows.Next() {
		var job models.FinetuneJob
		if err := rows.Scan(&job.ID, &job.ProviderJobID, &job.BaseModel, &job.Suffix, &job.TrainFile, &job.ValidationFile,
			&job.Status, &job.FineTunedModel, &job.Error, &job.CreatedAt, &job.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan finetune job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *Registry) RegisterModel(ctx context.Context, name, modelID, baseModel string, finetuneJobID *uuid.UUID) (*models.ModelEntry, error) {
	var m models.ModelEntry
	err := r.db.QueryRow(ctx,
		`INSERT INTO model_registry (id, name, model_id, base_model, finetune_job_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, model_id, base_model, finetune_job_id, created_at`,
		uuid.New(), name, modelID, baseModel, finetuneJobID,
	).Scan(&m.ID, &m.Name, &m.ModelID, &m.BaseModel, &m.FinetuneJobID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("register model: %w", err)
	}
	return &m, nil
}

func (r *Registry) ListModels(ctx context.Context) ([]models.ModelEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, model_id, base_model, finetune_job_id, created_at
		 FROM model_registry ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var entries []models.ModelEntry
	for rows.Next() {
		var m models.ModelEntry
		if err := rows.Scan(&m.ID, &m.Name, &m.ModelID, &m.BaseModel, &m.FinetuneJobID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		entries = append(entries, m)
	}
	return entries, nil
}

func (r *Registry) SaveEvalScore(ctx context.Context, score models.EvalScore) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO eval_scores (id, run_id, pair, string_similarity, numeric_similarity, string_samples, numeric_samples)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), score.RunID, score.Pair, score.StringSim, score.NumericSim, score.StringSamples, score.NumericSamples,
	)
	if err != nil {
		return fmt.Errorf("save eval score: %w", err)
	}
	return nil
}

func (r *Registry) ListEvalScores(ctx context.Context, runID uuid.UUID) ([]models.EvalScore, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, run_id, pair, string_similarity, numeric_similarity, string_samples, numeric_samples, created_at
		 FROM eval_scores WHERE run_id = $1 ORDER BY pair`, runID)
	if err != nil {
		return nil, fmt.Errorf("list eval scores: %w", err)
	}
	defer rows.Close()

	var scores []models.EvalScore
	for rows.Next() {
		var s models.EvalScore
		if err := rows.Scan(&s.ID, &s.RunID, &s.Pair, &s.StringSim, &s.NumericSim,
			&s.StringSamples, &s.NumericSamples, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan eval score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, nil
}

// SaveEvalOutput stores one candidate output with its embedding so
// outputs can be compared again later without re-running the batch.
func (r *Registry) SaveEvalOutput(ctx context.Context, runID uuid.UUID, candidate, customID, content string, embedding []float32) error {
	var vec any
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO eval_outputs (id, run_id, candidate, custom_id, content, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), runID, candidate, customID, content, vec,
	)
	if err != nil {
		return fmt.Errorf("save eval output: %w", err)
	}
	return nil
}

// EvalOutputMatch is one stored output ranked by cosine similarity.
type EvalOutputMatch struct {
	Candidate string
	CustomID  string
	Content   string
	Score     float64
}

// SimilarOutputs returns the stored outputs of a run closest to the
// query embedding, by cosine similarity.
func (r *Registry) SimilarOutputs(ctx context.Context, runID uuid.UUID, query []float32, topK int) ([]EvalOutputMatch, error) {
	if topK <= 0 {
		topK = 10
	}
	rows, err := r.db.Query(ctx,
		`SELECT candidate, custom_id, content, 1 - (embedding <=> $2) AS score
		 FROM eval_outputs
		 WHERE run_id = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		runID, pgvector.NewVector(query), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("similar outputs: %w", err)
	}
	defer rows.Close()

	var matches []EvalOutputMatch
	for rows.Next() {
		var m EvalOutputMatch
		if err := rows.Scan(&m.Candidate, &m.CustomID, &m.Content, &m.Score); err != nil {
			return nil, fmt.Errorf("scan output: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}
