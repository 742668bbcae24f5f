package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/internal/logger"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/referential"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/sink"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/siri"
)

// DefaultTaskTimeout bounds waiting on one stop's fetch result.
const DefaultTaskTimeout = 30 * time.Second

// Options configures an Orchestrator.
type Options struct {
	Workers           int
	TaskTimeout       time.Duration
	RetryAttempts     int
	RetryInitialDelay time.Duration
	Archiver          *sink.RawArchiver
}

// Orchestrator fans fetch+flatten tasks over a bounded worker pool and
// aggregates the outcomes. Per-stop failures are contained at the task
// boundary; only fatal conditions propagate.
type Orchestrator struct {
	client            *Client
	out               sink.Sink
	archiver          *sink.RawArchiver
	log               *logger.Logger
	workers           int
	taskTimeout       time.Duration
	retryAttempts     int
	retryInitialDelay time.Duration
}

// NewOrchestrator creates an orchestrator writing to out.
func NewOrchestrator(client *Client, out sink.Sink, log *logger.Logger, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = DefaultTaskTimeout
	}
	return &Orchestrator{
		client:            client,
		out:               out,
		archiver:          opts.Archiver,
		log:               log,
		workers:           opts.Workers,
		taskTimeout:       opts.TaskTimeout,
		retryAttempts:     opts.RetryAttempts,
		retryInitialDelay: opts.RetryInitialDelay,
	}
}

// taskOutcome is what one worker hands back to the aggregation loop. Exactly
// one of rows/gap/err describes the result.
type taskOutcome struct {
	stop referential.SelectedStop
	rows []siri.Row
	body []byte
	gap  *siri.Gap
	err  error
}

// Execute runs one fetch+flatten task per selected stop and returns the run
// summary once every task has settled. Completion order is not submission
// order; aggregation uses only counters and append-only output.
func (o *Orchestrator) Execute(ctx context.Context, stops []referential.SelectedStop) (*Result, error) {
	start := time.Now()
	o.log.Info("starting parallel retrieval", "workers", o.workers, "stops", len(stops))

	outcomes := make(chan taskOutcome, len(stops))
	var g errgroup.Group
	g.SetLimit(o.workers)
	for _, stop := range stops {
		stop := stop
		g.Go(func() error {
			outcomes <- o.runTask(ctx, stop)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(outcomes)
	}()

	result := &Result{RunID: uuid.NewString(), OutputPath: o.out.Path()}

	// Single aggregation loop: the orchestrator is the sole sink writer, so
	// appends are serialized without file-level locking.
	for outcome := range outcomes {
		result.TotalProcessed++
		stopLog := o.log.With("stop", outcome.stop.Name)

		if o.archiver != nil && outcome.body != nil {
			if err := o.archiver.Write(outcome.stop.Name, outcome.body); err != nil {
				stopLog.Warn("failed to archive raw response", "error", err)
			}
		}

		switch {
		case outcome.err != nil:
			result.TotalFailed++
			stopLog.Error("stop retrieval failed", "error", outcome.err)
		case outcome.gap != nil:
			result.TotalFailed++
			stopLog.Warn("data formatting produced no rows",
				"stage", outcome.gap.Stage, "detail", outcome.gap.Detail)
		default:
			if err := o.out.Append(outcome.rows); err != nil {
				result.TotalFailed++
				stopLog.Error("failed to append rows", "error", err)
				continue
			}
			result.TotalSuccessful++
			result.RowsWritten += len(outcome.rows)
			stopLog.Info("data formatting completed", "rows", len(outcome.rows))
		}
	}

	result.ExecutionTimeSeconds = round2(time.Since(start).Seconds())
	result.finalize()
	o.log.Info("parallel retrieval completed",
		"requests", result.TotalProcessed,
		"successful", result.TotalSuccessful,
		"failed", result.TotalFailed,
		"rows", result.RowsWritten,
		"status", result.Status)
	return result, nil
}

// runTask fetches and flattens one stop under the task timeout. Panics are
// recovered here and counted like any other failure.
func (o *Orchestrator) runTask(ctx context.Context, stop referential.SelectedStop) (outcome taskOutcome) {
	outcome.stop = stop
	defer func() {
		if r := recover(); r != nil {
			outcome.err = fmt.Errorf("panic during retrieval: %v", r)
		}
	}()

	taskCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
	defer cancel()

	resp, err := o.fetch(taskCtx, stop.ID)
	if err != nil {
		outcome.err = err
		return outcome
	}
	outcome.body = resp.Body
	outcome.rows, outcome.gap = siri.Flatten(resp.Document)
	return outcome
}

// fetch wraps the client call with the optional exponential-backoff retry
// policy. Client errors on 4xx statuses are permanent.
func (o *Orchestrator) fetch(ctx context.Context, stopID string) (*Response, error) {
	if o.retryAttempts <= 0 {
		return o.client.Fetch(ctx, stopID)
	}

	b := backoff.NewExponentialBackOff()
	if o.retryInitialDelay > 0 {
		b.InitialInterval = o.retryInitialDelay
	}

	return backoff.RetryWithData(func() (*Response, error) {
		resp, err := o.client.Fetch(ctx, stopID)
		if err != nil {
			var statusErr *HTTPStatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return resp, nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.retryAttempts)), ctx))
}
