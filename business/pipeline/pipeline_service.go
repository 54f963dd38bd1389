package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"salesWarehouse/pkg/logger"
	"salesWarehouse/pkg/metrics"

	"github.com/google/uuid"
)

// Stage names, in execution order.
const (
	StageExtract   = "extract"
	StageNormalize = "normalize"
	StageTransform = "transform"
)

var allStages = []string{StageExtract, StageNormalize, StageTransform}

// ErrRunInProgress is returned when a run is requested while another run
// holds the pipeline. One worker per checkpoint stream is the whole
// concurrency model, so overlapping runs are refused rather than queued.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Extractor contract interface
type Extractor interface {
	ExtractBatch(ctx context.Context) (int, error)
}

// Normalizer contract interface
type Normalizer interface {
	ProcessBatch(ctx context.Context) (int, error)
}

// Transformer contract interface
type Transformer interface {
	LoadDimensions(ctx context.Context) error
	LoadFactsIncremental(ctx context.Context) (int, error)
}

// RunStatus describes the last (or current) pipeline run.
type RunStatus struct {
	RunID          string     `json:"run_id"`
	State          string     `json:"state"` // running, succeeded, failed
	Stage          string     `json:"stage,omitempty"`
	Stages         []string   `json:"stages"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	RowsExtracted  int        `json:"rows_extracted"`
	RowsNormalized int        `json:"rows_normalized"`
	FactsInserted  int        `json:"facts_inserted"`
	Error          string     `json:"error,omitempty"`
}

type pipelineService struct {
	extractor   Extractor
	normalizer  Normalizer
	transformer Transformer

	mu      sync.Mutex
	running bool
	last    RunStatus
}

func NewPipelineService(extractor Extractor, normalizer Normalizer, transformer Transformer) *pipelineService {
	return &pipelineService{
		extractor:   extractor,
		normalizer:  normalizer,
		transformer: transformer,
	}
}

// Run executes the requested stages in pipeline order, each drained fully
// before the next starts. An empty stage list means all stages. Any stage
// error is fatal to the run; progress already committed stays valid and the
// next run resumes from the persisted checkpoints.
func (s *pipelineService) Run(ctx context.Context, stages []string) (RunStatus, error) {
	status, err := s.begin(stages)
	if err != nil {
		return RunStatus{}, err
	}

	return s.execute(ctx, status)
}

// StartAsync acquires the run slot synchronously and executes the run in
// the background, for the ops API trigger. The returned status is the
// freshly started run.
func (s *pipelineService) StartAsync(stages []string) (RunStatus, error) {
	status, err := s.begin(stages)
	if err != nil {
		return RunStatus{}, err
	}

	go func() {
		// detached from the request context; a run outlives its trigger
		_, _ = s.execute(context.Background(), status)
	}()

	return status, nil
}

// begin validates the stage list and claims the single run slot.
func (s *pipelineService) begin(stages []string) (RunStatus, error) {
	if len(stages) == 0 {
		stages = allStages
	}

	for _, stage := range stages {
		if !slices.Contains(allStages, stage) {
			return RunStatus{}, fmt.Errorf("unknown pipeline stage %q", stage)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return RunStatus{}, ErrRunInProgress
	}

	s.running = true
	status := RunStatus{
		RunID:     uuid.NewString(),
		State:     "running",
		Stages:    stages,
		StartedAt: time.Now(),
	}
	s.last = status

	return status, nil
}

func (s *pipelineService) execute(ctx context.Context, status RunStatus) (RunStatus, error) {
	logger.Info("Pipeline run started", "run_id", status.RunID, "stages", fmt.Sprint(status.Stages))

	err := s.runStages(ctx, &status, status.Stages)

	now := time.Now()
	status.FinishedAt = &now
	status.Stage = ""
	if err != nil {
		status.State = "failed"
		status.Error = err.Error()
		metrics.EtlRunFailures.Inc()
		logger.Error("Pipeline run failed", "run_id", status.RunID, "error", err)
	} else {
		status.State = "succeeded"
		logger.Info("Pipeline run succeeded",
			"run_id", status.RunID,
			"rows_extracted", status.RowsExtracted,
			"rows_normalized", status.RowsNormalized,
			"facts_inserted", status.FactsInserted,
			"duration", now.Sub(status.StartedAt).String(),
		)
	}

	s.mu.Lock()
	s.running = false
	s.last = status
	s.mu.Unlock()

	return status, err
}

// Status returns a copy of the last known run status. The boolean is false
// when no run has been started yet.
func (s *pipelineService) Status() (RunStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last, s.last.RunID != ""
}

func (s *pipelineService) runStages(ctx context.Context, status *RunStatus, stages []string) error {
	for _, stage := range stages {
		s.setStage(status, stage)
		start := time.Now()

		var err error
		switch stage {
		case StageExtract:
			status.RowsExtracted, err = s.drain(ctx, s.extractor.ExtractBatch)
		case StageNormalize:
			status.RowsNormalized, err = s.drain(ctx, s.normalizer.ProcessBatch)
		case StageTransform:
			err = s.transformer.LoadDimensions(ctx)
			if err == nil {
				status.FactsInserted, err = s.transformer.LoadFactsIncremental(ctx)
			}
		}

		metrics.EtlStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

		if err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
	}

	return nil
}

// drain loops one stage's batch contract until an empty batch signals
// end-of-data. A cancellation between batches is safe: the next run resumes
// from the last committed checkpoint.
func (s *pipelineService) drain(ctx context.Context, processBatch func(context.Context) (int, error)) (int, error) {
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("context error: %w", err)
		}

		n, err := processBatch(ctx)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}

		total += n
	}
}

func (s *pipelineService) setStage(status *RunStatus, stage string) {
	status.Stage = stage

	s.mu.Lock()
	s.last = *status
	s.mu.Unlock()

	logger.Info("Pipeline stage started", "run_id", status.RunID, "stage", stage)
}
