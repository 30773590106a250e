package network

// EncodeObservation lays out one observation as the network expects it:
// the raw state, a one-hot encoding of the previous action, the previous
// reward and the current timestep. A negative prevAction encodes the start of
// an episode, where no action was taken yet.
func EncodeObservation(state []float64, prevAction, actionSize int, reward, timestep float64) []float64 {
	obs := make([]float64, 0, len(state)+actionSize+2)
	obs = append(obs, state...)
	oneHot := make([]float64, actionSize)
	if prevAction >= 0 && prevAction < actionSize {
		oneHot[prevAction] = 1
	}
	obs = append(obs, oneHot...)
	return append(obs, reward, timestep)
}
