package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeu5/dual-ac/network"
)

func parseObservation(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	obs := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("observation entry %d: %w", i, err)
		}
		obs[i] = v
	}
	return obs, nil
}

// Forward runs the given observations as consecutive steps of one rollout and
// returns the outputs of every step
func Forward(net *network.DualHeadActorCritic, observations [][]float64) ([]network.StepOutput, error) {
	outputs := make([]network.StepOutput, 0, len(observations))
	state := network.State{}
	for _, obs := range observations {
		out, err := net.Step(obs, state)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out.Row(0))
		state = out.State
	}
	return outputs, nil
}

func ForwardCommand() *cobra.Command {
	var observations []string
	var steps int

	cmd := &cobra.Command{
		Use:   "forward",
		Short: "Run observations through the network and print the outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			net, _, err := loadNetwork(context.Background(), cfg, logger)
			if err != nil {
				return err
			}

			inputs := make([][]float64, 0)
			for _, o := range observations {
				obs, err := parseObservation(o)
				if err != nil {
					return err
				}
				inputs = append(inputs, obs)
			}
			if len(inputs) == 0 {
				// zero state, previous action 0, reward 0.5 at timestep 1
				c := net.Config()
				inputs = append(inputs, network.EncodeObservation(make([]float64, c.StateSize), 0, c.ActionSize, 0.5, 1.0))
			}
			for len(inputs) < steps {
				inputs = append(inputs, inputs[len(inputs)-1])
			}

			outputs, err := Forward(net, inputs)
			if err != nil {
				return err
			}
			bs, err := json.MarshalIndent(outputs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bs))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&observations, "observation", "o", nil, "Comma separated observation, repeat for consecutive steps")
	cmd.Flags().IntVar(&steps, "steps", 1, "Repeat the last observation until this many steps ran")
	return cmd
}
