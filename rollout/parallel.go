package rollout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/dual-ac/network"
	"github.com/zeu5/dual-ac/util"
	"golang.org/x/sync/errgroup"
)

// ParallelConfig configures RunParallel
type ParallelConfig struct {
	Workers int // number of concurrent rollouts

	RecordPath string // when set, traces are appended to <RecordPath>/traces/<worker>.jsonl

	PrintFrequency time.Duration // zero disables the terminal printer
	PrintOut       io.Writer     // defaults to stdout

	Logger *logrus.Logger
}

// RunParallel replays the episodes across workers. Workers share the network
// read-only and each owns the recurrent state of the episode it is replaying,
// so every episode is still processed strictly in time order. Traces are
// returned in the order of the episodes. The first error cancels the rest.
func RunParallel(ctx context.Context, net *network.DualHeadActorCritic, episodes []Episode, cfg ParallelConfig) ([]*Trace, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(episodes) {
		workers = len(episodes)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.PrintOut == nil {
		cfg.PrintOut = os.Stdout
	}

	traces := make([]*Trace, len(episodes))
	jobs := make(chan int)
	outputs := make([]*ParallelOutput, workers)
	for i := range outputs {
		outputs[i] = NewParallelOutput()
	}

	g, gCtx := errgroup.WithContext(ctx)

	var printer *TerminalPrinter
	if cfg.PrintFrequency > 0 {
		printer = NewTerminalPrinter(gCtx, outputs, cfg.PrintFrequency, cfg.PrintOut)
		printer.Start()
		defer printer.Stop()
	}

	g.Go(func() error {
		defer close(jobs)
		for i := range episodes {
			select {
			case jobs <- i:
			case <-gCtx.Done():
				return gCtx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			runner := NewRunner(net, logger)
			output := outputs[w]
			output.setRunning(true)
			defer output.setRunning(false)

			done := 0
			for i := range jobs {
				ep := episodes[i]
				output.TrySet(fmt.Sprintf("Worker:%3d, Episode: %s, Done: %d", w, ep.Name, done))
				trace, err := runner.Run(gCtx, ep)
				if err != nil {
					return err
				}
				traces[i] = trace
				done++
				if cfg.RecordPath != "" {
					if err := recordTrace(cfg.RecordPath, w, trace); err != nil {
						logger.WithError(err).WithField("episode", ep.Name).Warn("trace not recorded")
					}
				}
			}
			output.Set(fmt.Sprintf("Worker:%3d, Finished, Done: %d", w, done))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"episodes": len(episodes), "workers": workers}).Info("rollouts finished")
	return traces, nil
}

func recordTrace(recordPath string, worker int, trace *Trace) error {
	bs, err := json.Marshal(trace)
	if err != nil {
		return err
	}
	return util.AppendToFile(path.Join(recordPath, "traces", fmt.Sprintf("worker_%d.jsonl", worker)), string(bs))
}
