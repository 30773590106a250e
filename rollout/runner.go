package rollout

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/dual-ac/network"
)

// Runner replays episodes through a network, owning the recurrent state.
type Runner struct {
	net    *network.DualHeadActorCritic
	logger *logrus.Logger
}

func NewRunner(net *network.DualHeadActorCritic, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{
		net:    net,
		logger: logger,
	}
}

// Run feeds the observations of the episode one at a time, carrying the state
// from each step into the next. On error the partial trace is returned.
func (r *Runner) Run(ctx context.Context, ep Episode) (*Trace, error) {
	trace := NewTrace(ep.Name)
	state := network.State{}
	start := time.Now()

	for i, obs := range ep.Observations {
		select {
		case <-ctx.Done():
			return trace, ctx.Err()
		default:
		}

		out, err := r.net.Step(obs, state)
		if err != nil {
			return trace, fmt.Errorf("episode %s step %d: %w", ep.Name, i, err)
		}
		trace.Append(obs, out.Row(0))
		state = out.State
	}

	r.logger.WithFields(logrus.Fields{
		"episode":  ep.Name,
		"steps":    trace.Len(),
		"duration": time.Since(start),
	}).Debug("episode replayed")
	return trace, nil
}
