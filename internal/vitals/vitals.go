// Package vitals integrates the external biometric sensor process. The
// sensor writes its latest reading to a JSON file and watches a trigger
// file for measurement-window commands; nothing here is a correctness
// dependency of the interview session.
package vitals

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Reading is one biometric snapshot. The zero value is the neutral
// "sensor has not produced a reading" state.
type Reading struct {
	Pulse     float64 `json:"pulse"`
	Breathing float64 `json:"breathing"`
}

// Reader reads the sensor's latest-reading file.
type Reader struct {
	path string
}

// NewReader creates a reader for the sensor output directory.
func NewReader(dir string) *Reader {
	return &Reader{path: filepath.Join(dir, "latest_vitals.json")}
}

// Read returns the latest reading. A missing file yields a zero reading
// with no error; the sensor process may simply not have started yet.
func (r *Reader) Read() (Reading, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Reading{}, nil
		}
		return Reading{}, err
	}
	var reading Reading
	if err := json.Unmarshal(data, &reading); err != nil {
		return Reading{}, err
	}
	return reading, nil
}
