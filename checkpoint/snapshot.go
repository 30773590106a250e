// Package checkpoint persists the parameters of a network.
package checkpoint

import (
	"errors"
	"fmt"
	"time"

	"github.com/zeu5/dual-ac/network"
)

var (
	// ErrNotFound is returned by a Store when the key holds no snapshot
	ErrNotFound = errors.New("checkpoint not found")
	// ErrShapeMismatch is returned when a snapshot does not fit the network
	ErrShapeMismatch = errors.New("checkpoint does not match network")
)

// Tensor is the serialized form of one network parameter
type Tensor struct {
	Name string    `json:"name"`
	Role string    `json:"role"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// Snapshot holds the dimensions and every parameter of a network
type Snapshot struct {
	Config    network.Config `json:"config"`
	Tensors   []Tensor       `json:"tensors"`
	CreatedAt time.Time      `json:"created_at"`
}

// Take copies the parameters of the network into a snapshot
func Take(net *network.DualHeadActorCritic) *Snapshot {
	params := net.Parameters()
	snap := &Snapshot{
		Config:    net.Config(),
		Tensors:   make([]Tensor, len(params)),
		CreatedAt: time.Now(),
	}
	for i, p := range params {
		rows, cols := p.Dims()
		snap.Tensors[i] = Tensor{
			Name: p.Name,
			Role: p.Role.String(),
			Rows: rows,
			Cols: cols,
			Data: append([]float64(nil), p.Data()...),
		}
	}
	return snap
}

// Restore overwrites the parameters of the network with the snapshot.
// Nothing is written unless every tensor matches by name and shape.
func Restore(net *network.DualHeadActorCritic, snap *Snapshot) error {
	cfg := net.Config()
	if snap.Config.StateSize != cfg.StateSize || snap.Config.ActionSize != cfg.ActionSize || snap.Config.HiddenSize != cfg.HiddenSize {
		return fmt.Errorf("%w: snapshot dims %d/%d/%d, network dims %d/%d/%d", ErrShapeMismatch,
			snap.Config.StateSize, snap.Config.ActionSize, snap.Config.HiddenSize,
			cfg.StateSize, cfg.ActionSize, cfg.HiddenSize)
	}
	params := net.Parameters()
	if len(params) != len(snap.Tensors) {
		return fmt.Errorf("%w: %d tensors, want %d", ErrShapeMismatch, len(snap.Tensors), len(params))
	}
	for i, p := range params {
		t := snap.Tensors[i]
		rows, cols := p.Dims()
		if t.Name != p.Name || t.Rows != rows || t.Cols != cols || len(t.Data) != rows*cols {
			return fmt.Errorf("%w: tensor %q (%dx%d), want %q (%dx%d)", ErrShapeMismatch, t.Name, t.Rows, t.Cols, p.Name, rows, cols)
		}
	}
	for i, p := range params {
		copy(p.Data(), snap.Tensors[i].Data)
	}
	return nil
}

// Build creates a network with the snapshot's dimensions and parameters
func (s *Snapshot) Build() (*network.DualHeadActorCritic, error) {
	cfg := s.Config
	net, err := network.New(&cfg)
	if err != nil {
		return nil, err
	}
	if err := Restore(net, s); err != nil {
		return nil, err
	}
	return net, nil
}
