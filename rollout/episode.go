package rollout

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Episode is a recorded stream of observations. The recurrent state is reset
// before the first observation.
type Episode struct {
	Name         string      `json:"name"`
	Observations [][]float64 `json:"observations"`
}

// LoadEpisodes reads one JSON encoded episode per line. Unnamed episodes are
// named after their line number.
func LoadEpisodes(file string) ([]Episode, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	episodes := make([]Episode, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var ep Episode
		if err := json.Unmarshal(scanner.Bytes(), &ep); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file, line, err)
		}
		if ep.Name == "" {
			ep.Name = "episode_" + strconv.Itoa(line)
		}
		episodes = append(episodes, ep)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return episodes, nil
}
