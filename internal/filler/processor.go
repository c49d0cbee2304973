package filler

import (
	"context"
	"fmt"
	"time"

	"github.com/ethanbaker/controlfill/internal/completion"
	"github.com/ethanbaker/controlfill/internal/controls"
	"github.com/ethanbaker/controlfill/internal/stores/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle of one control row within a run
type State string

const (
	StatePending  State = "pending"   // Result empty, not yet sent
	StateInFlight State = "in_flight" // Completion requested
	StateDone     State = "done"      // Result written and snapshot persisted
	StateFailed   State = "failed"    // Completion or persistence failed, run halted
	StateSkipped  State = "skipped"   // Result already present
)

// Completer produces generated text for a prompt, retrying as it sees fit
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (completion.Result, error)
}

// Persister writes the whole dataset to durable storage
type Persister interface {
	Persist(ctx context.Context) error
}

// Params are the generation parameters sent with every prompt
type Params struct {
	Model       string
	Temperature float64
	Dataset     string
}

// Summary counts what a run did
type Summary struct {
	Total     int // Rows in the dataset
	Skipped   int // Rows that already had a result
	Completed int // Rows filled during this run
	Attempts  int // Completion attempts across all filled rows
	Planned   int // Prompts built in dry-run mode
}

// Processor walks a dataset in row order and fills every row that lacks a
// result, persisting a snapshot after each one
type Processor struct {
	Dataset   *controls.Dataset
	Template  controls.PromptTemplate
	Completer Completer
	Snapshot  Persister
	Ledger    ledger.Store // Optional
	Params    Params

	Pace  time.Duration        // Wait after each completed row
	Sleep completion.SleepFunc // Defaults to completion.Sleep

	DryRun bool // Build prompts only; no remote calls and no writes
	Limit  int  // Stop after this many completions; 0 means no limit

	RunID  uuid.UUID
	Logger *zap.Logger
}

// Run processes every row once. The first completion or snapshot failure
// halts the run and is returned alongside the partial summary
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = completion.Sleep
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if p.RunID == uuid.Nil {
		p.RunID = uuid.New()
	}
	logger = logger.With(zap.String("run_id", p.RunID.String()))

	summary := Summary{Total: p.Dataset.Len()}

	for i := 0; i < p.Dataset.Len(); i++ {
		rec := p.Dataset.Record(i)
		rlog := logger.With(zap.Int("row", i), zap.String("control", rec.ID))

		if rec.Filled() {
			summary.Skipped++
			rlog.Debug("Row already filled", zap.String("state", string(StateSkipped)))
			continue
		}

		if p.Limit > 0 && summary.Completed >= p.Limit {
			rlog.Info("Completion limit reached, stopping", zap.Int("limit", p.Limit))
			break
		}

		prompt := p.Template.Build(rec.Description)

		if p.DryRun {
			summary.Planned++
			rlog.Info("Dry run, prompt built",
				zap.String("state", string(StatePending)),
				zap.Int("prompt_chars", len(prompt)))
			rlog.Debug("Prompt", zap.String("prompt", prompt))
			continue
		}

		rlog.Info("Requesting completion", zap.String("state", string(StateInFlight)))

		res, err := p.Completer.Complete(ctx, completion.Request{
			Prompt:      prompt,
			Temperature: p.Params.Temperature,
			Dataset:     p.Params.Dataset,
			Model:       p.Params.Model,
		})
		if err != nil {
			rlog.Error("Completion failed, halting run", zap.String("state", string(StateFailed)), zap.Error(err))
			return summary, fmt.Errorf("control %s (row %d): %w", rec.ID, i, err)
		}
		summary.Attempts += res.Attempts

		if err := p.Dataset.Set(i, res.Text); err != nil {
			rlog.Error("Failed to store result", zap.String("state", string(StateFailed)), zap.Error(err))
			return summary, err
		}

		if err := p.Snapshot.Persist(ctx); err != nil {
			rlog.Error("Failed to persist snapshot", zap.String("state", string(StateFailed)), zap.Error(err))
			return summary, fmt.Errorf("control %s (row %d): %w", rec.ID, i, err)
		}
		summary.Completed++

		rlog.Info("Row filled",
			zap.String("state", string(StateDone)),
			zap.Int("attempts", res.Attempts),
			zap.Int("response_chars", len(res.Text)))
		rlog.Debug("Response", zap.String("response", res.Text))

		if p.Ledger != nil {
			entry := &ledger.Entry{
				RunID:     p.RunID,
				Row:       i,
				ControlID: rec.ID,
				Model:     p.Params.Model,
				Prompt:    prompt,
				Response:  res.Text,
				Attempts:  res.Attempts,
			}
			if err := p.Ledger.Record(ctx, entry); err != nil {
				rlog.Warn("Failed to record ledger entry", zap.Error(err))
			}
		}

		if p.Limit > 0 && summary.Completed >= p.Limit {
			continue
		}

		rlog.Debug("Pacing", zap.Duration("interval", p.Pace))
		if err := sleep(ctx, p.Pace); err != nil {
			return summary, err
		}
	}

	logger.Info("Run complete",
		zap.Int("total", summary.Total),
		zap.Int("skipped", summary.Skipped),
		zap.Int("completed", summary.Completed),
		zap.Int("attempts", summary.Attempts),
		zap.Int("planned", summary.Planned))

	return summary, nil
}
