package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zeu5/dual-ac/analysis"
	"github.com/zeu5/dual-ac/network"
	"github.com/zeu5/dual-ac/rollout"
	"github.com/zeu5/dual-ac/util"
)

// Rollout replays the episodes and writes traces, summaries and plots under saveFile
func Rollout(ctx context.Context, net *network.DualHeadActorCritic, episodes []rollout.Episode, cfg RolloutConfig, saveFile string, logger *logrus.Logger) ([]rollout.Summary, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if _, err := os.Stat(saveFile); err == nil {
		util.RemoveContents(saveFile)
	}
	if err := util.EnsureDir(saveFile); err != nil {
		return nil, err
	}

	traces, err := rollout.RunParallel(ctx, net, episodes, rollout.ParallelConfig{
		Workers:        cfg.Workers,
		RecordPath:     saveFile,
		PrintFrequency: cfg.Progress,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]rollout.Summary, len(traces))
	for i, trace := range traces {
		summaries[i] = rollout.Summarize(trace)
		if summaries[i].NonFinite > 0 {
			logger.WithFields(logrus.Fields{
				"episode":    trace.Episode,
				"non_finite": summaries[i].NonFinite,
			}).Warn("degenerate outputs")
		}
		if cfg.Plot && trace.Len() > 0 {
			plotPath := path.Join(saveFile, "plots", trace.Episode+"_values.png")
			if err := util.EnsureDir(path.Dir(plotPath)); err != nil {
				return nil, err
			}
			if err := analysis.PlotValues(trace, plotPath); err != nil {
				logger.WithError(err).WithField("episode", trace.Episode).Warn("could not plot values")
			}
		}
	}
	if cfg.Plot && len(summaries) > 0 {
		if err := analysis.PlotSummaries(summaries, path.Join(saveFile, "plots", "summaries.png")); err != nil {
			logger.WithError(err).Warn("could not plot summaries")
		}
	}

	bs, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := util.WriteToFile(path.Join(saveFile, "summaries.json"), string(bs)); err != nil {
		return nil, err
	}
	return summaries, nil
}

func RolloutCommand() *cobra.Command {
	var episodesFile string
	var workers int
	var noPlot bool

	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Replay recorded observation episodes through the network",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("episodes") {
				cfg.Rollout.Episodes = episodesFile
			}
			if cmd.Flags().Changed("workers") {
				cfg.Rollout.Workers = workers
			}
			if noPlot {
				cfg.Rollout.Plot = false
			}
			if cfg.Rollout.Episodes == "" {
				return fmt.Errorf("rollout needs an --episodes file")
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			defer startProfiling(logger)()

			net, _, err := loadNetwork(ctx, cfg, logger)
			if err != nil {
				return err
			}
			episodes, err := rollout.LoadEpisodes(cfg.Rollout.Episodes)
			if err != nil {
				return err
			}
			summaries, err := Rollout(ctx, net, episodes, cfg.Rollout, saveFile, logger)
			if err != nil {
				return err
			}
			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: steps %d, mean V1 %.4f, mean V2 %.4f, mean class %.4f\n",
					s.Episode, s.Steps, s.MeanV1, s.MeanV2, s.MeanClass)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&episodesFile, "episodes", "", "JSONL file with one episode per line")
	cmd.Flags().IntVar(&workers, "workers", 4, "Number of concurrent rollouts")
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "Skip the plots")
	return cmd
}
