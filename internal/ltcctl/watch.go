package ltcctl

import (
	"context"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/client/domain"
	"github.com/tinarmengineering/ltc/pkg/monitor"
	"github.com/tinarmengineering/ltc/pkg/progress"
)

const metricsShutdownTimeout = 5 * time.Second

// Watch queues a job and prints its progress until it finishes, then prints the final status
// recorded by the job service.
func (a *App) Watch(ctx context.Context, jobId string) error {
	return a.withMonitor(ctx, func(ctx context.Context, m *monitor.Monitor) error {
		a.printf("Watching job %s on %s\n", jobId, m.Destination(jobId))
		status, err := m.WatchJob(ctx, jobId, a.printUpdate)
		if err != nil {
			return err
		}
		a.printf("Job %s finished: %s\n", jobId, status)
		return nil
	})
}

// WatchBatch queues every job and prints a state summary on each update until all of them
// have finished. A table of the final states is printed even when the watch is interrupted.
func (a *App) WatchBatch(ctx context.Context, jobIds []string) error {
	watchContext := domain.NewWatchContext()
	return a.withMonitor(ctx, func(ctx context.Context, m *monitor.Monitor) error {
		a.printf("Watching %d jobs\n", len(jobIds))
		statuses, err := m.WatchBatch(ctx, jobIds, func(jobId string, payload progress.Payload) {
			watchContext.ProcessPayload(jobId, payload)
			a.printf("%s | job %s\n", watchContext.GetCurrentStateSummary(), jobId)
		})
		a.printStatusTable(jobIds, statuses, watchContext)
		return err
	})
}

func (a *App) withMonitor(ctx context.Context, fn func(ctx context.Context, m *monitor.Monitor) error) error {
	jobs, err := a.MonitorAPI.Jobs(&a.Params.Api)
	if err != nil {
		return err
	}
	conn, closeConn, err := a.MonitorAPI.Connect(a.Params.Nats)
	if err != nil {
		return err
	}
	if closeConn != nil {
		defer closeConn()
	}

	m := monitor.New(conn, jobs,
		monitor.WithTopic(a.Params.Topic),
		monitor.WithQueuedStatus(a.Params.QueuedStatus))
	return a.withMetrics(ctx, func(ctx context.Context) error {
		return fn(ctx, m)
	})
}

// withMetrics serves Prometheus metrics on Params.MetricsAddr for as long as fn runs.
func (a *App) withMetrics(ctx context.Context, fn func(ctx context.Context) error) error {
	addr := a.Params.MetricsAddr
	if addr == "" {
		return fn(ctx)
	}

	server := &http.Server{Addr: addr, Handler: promhttp.Handler()}
	g, ctx := errgroup.WithContext(ctx)
	finished := make(chan struct{})
	g.Go(func() error {
		defer close(finished)
		return fn(ctx)
	})
	g.Go(func() error {
		log.Infof("Serving metrics on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.WithMessagef(err, "serving metrics on %s", addr)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-finished:
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		return errors.WithStack(server.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func (a *App) printUpdate(update progress.Update) {
	switch update.Kind {
	case progress.StatusUpdate:
		a.printf("%s | status %s from %s\n", update.JobId, update.Status, update.Worker)
	default:
		percent := 0.0
		if update.Total > 0 {
			percent = 100 * update.Done / update.Total
		}
		a.printf("%s | progress %g/%g (%.0f%%)\n", update.JobId, update.Done, update.Total, percent)
	}
}

func (a *App) printStatusTable(jobIds []string, statuses map[string]api.JobStatus, watchContext *domain.WatchContext) {
	a.outMutex.Lock()
	defer a.outMutex.Unlock()

	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "JOB\tSTATUS\tPROGRESS\n")
	seen := make(map[string]bool, len(jobIds))
	for _, jobId := range jobIds {
		if seen[jobId] {
			continue
		}
		seen[jobId] = true

		status := "unknown"
		if s, ok := statuses[jobId]; ok {
			status = s.String()
		}
		completion := "-"
		if info := watchContext.GetJobInfo(jobId); info != nil && info.Total > 0 {
			completion = fmt.Sprintf("%.0f%%", 100*info.Fraction())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", jobId, status, completion)
	}
}

// printf serialises writes from the delivery goroutines of several subscriptions.
func (a *App) printf(format string, args ...interface{}) {
	a.outMutex.Lock()
	defer a.outMutex.Unlock()
	fmt.Fprintf(a.Out, format, args...)
}
