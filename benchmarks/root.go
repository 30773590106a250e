package benchmarks

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zeu5/dual-ac/checkpoint"
	"github.com/zeu5/dual-ac/network"
)

var (
	stateSize  int
	actionSize int
	hiddenSize int
	seed       uint64
	saveFile   string
	configFile string
	logLevel   string

	storeKind     string
	storeDir      string
	redisAddr     string
	checkpointKey string

	cpuprofile string
	memprofile string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "dual-ac",
		Short:         "Dual head recurrent actor-critic network",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().IntVar(&stateSize, "state-size", 4, "Dimension of the environment state")
	rootCommand.PersistentFlags().IntVar(&actionSize, "action-size", 2, "Number of discrete actions")
	rootCommand.PersistentFlags().IntVar(&hiddenSize, "hidden-size", 32, "Hidden size of the network")
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 0, "Seed of the parameter initialization, 0 for a random one")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level")
	rootCommand.PersistentFlags().StringVar(&storeKind, "store", "file", "Checkpoint store: file or redis")
	rootCommand.PersistentFlags().StringVar(&storeDir, "store-dir", "checkpoints", "Directory of the file checkpoint store")
	rootCommand.PersistentFlags().StringVar(&redisAddr, "redis-addr", "127.0.0.1:6379", "Address of the redis checkpoint store")
	rootCommand.PersistentFlags().StringVar(&checkpointKey, "key", "", "Checkpoint key to load or save")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file under the save folder")
	rootCommand.PersistentFlags().StringVar(&memprofile, "memprofile", "", "Write a heap profile to this file under the save folder")
	// adding the subcommands here
	rootCommand.AddCommand(ForwardCommand())
	rootCommand.AddCommand(InitCommand())
	rootCommand.AddCommand(RolloutCommand())
	rootCommand.AddCommand(ServeCommand())
	return rootCommand
}

func newLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger, nil
}

func newStore(cfg CheckpointConfig, logger *logrus.Logger) (checkpoint.Store, error) {
	switch cfg.Store {
	case "file":
		return checkpoint.NewFileStore(cfg.Dir, logger), nil
	case "redis":
		return checkpoint.NewRedisStore(cfg.RedisAddr, cfg.RedisPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint store %q", cfg.Store)
	}
}

// loadNetwork restores the checkpoint under key when set, otherwise builds a
// freshly initialized network
func loadNetwork(ctx context.Context, cfg *FileConfig, logger *logrus.Logger) (*network.DualHeadActorCritic, checkpoint.Store, error) {
	store, err := newStore(cfg.Checkpoint, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Checkpoint.Key == "" {
		net, err := network.New(&cfg.Model)
		return net, store, err
	}
	snap, err := store.Load(ctx, cfg.Checkpoint.Key)
	if err != nil {
		return nil, nil, err
	}
	net, err := snap.Build()
	if err != nil {
		return nil, nil, err
	}
	logger.WithField("key", cfg.Checkpoint.Key).Info("restored checkpoint")
	return net, store, nil
}
