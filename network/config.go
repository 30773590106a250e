package network

import "fmt"

// Config holds the dimensions of the network.
type Config struct {
	StateSize  int `yaml:"state_size" json:"state_size"`
	ActionSize int `yaml:"action_size" json:"action_size"`
	HiddenSize int `yaml:"hidden_size" json:"hidden_size"`

	// Seed of the orthogonal initialization. Zero picks a time based seed.
	Seed uint64 `yaml:"seed" json:"seed"`
}

// ObservationSpace describes the raw environment state
type ObservationSpace interface {
	Dim() int
}

// ActionSpace describes the discrete action set shared by both head groups
type ActionSpace interface {
	N() int
}

// ConfigFromSpaces builds a Config out of the environment descriptors
func ConfigFromSpaces(obs ObservationSpace, act ActionSpace, hiddenSize int) *Config {
	return &Config{
		StateSize:  obs.Dim(),
		ActionSize: act.N(),
		HiddenSize: hiddenSize,
	}
}

// Validate checks that every dimension is positive
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrConfiguration)
	}
	if c.StateSize <= 0 {
		return fmt.Errorf("%w: state size %d", ErrConfiguration, c.StateSize)
	}
	if c.ActionSize <= 0 {
		return fmt.Errorf("%w: action size %d", ErrConfiguration, c.ActionSize)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("%w: hidden size %d", ErrConfiguration, c.HiddenSize)
	}
	return nil
}

// InputSize is the observation width: state, one-hot previous action, reward and timestep.
func (c *Config) InputSize() int {
	return c.StateSize + c.ActionSize + 2
}

// Space is a fixed size descriptor implementing both ObservationSpace and ActionSpace
type Space int

var _ ObservationSpace = Space(0)
var _ ActionSpace = Space(0)

func (s Space) Dim() int { return int(s) }

func (s Space) N() int { return int(s) }
