package network

import "errors"

var (
	// ErrConfiguration is returned by New when a dimension is non-positive or
	// when the recurrent cell's bias layout does not match the expected gate order.
	ErrConfiguration = errors.New("invalid network configuration")
	// ErrInvalidInputShape is returned by Forward when the observation or the
	// recurrent state does not match the network dimensions.
	ErrInvalidInputShape = errors.New("invalid input shape")
)
