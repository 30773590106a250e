package benchmarks

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/dual-ac/checkpoint"
	"github.com/zeu5/dual-ac/network"
)

func InitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a network and store it as a checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			if cfg.Checkpoint.Key == "" {
				return fmt.Errorf("init needs a checkpoint --key")
			}
			net, err := network.New(&cfg.Model)
			if err != nil {
				return err
			}
			store, err := newStore(cfg.Checkpoint, logger)
			if err != nil {
				return err
			}
			if err := store.Save(context.Background(), cfg.Checkpoint.Key, checkpoint.Take(net)); err != nil {
				return err
			}
			logger.WithField("key", cfg.Checkpoint.Key).Info("stored initial parameters")
			return nil
		},
	}
}
