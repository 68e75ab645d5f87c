package vitals

import (
	"log"
	"os"
	"path/filepath"
)

// Action is a measurement-window command for the sensor process.
type Action string

const (
	ActionStart Action = "START"
	ActionNext  Action = "NEXT"
	ActionStop  Action = "STOP"
)

// Trigger signals the sensor process. Implementations must be safe to call
// fire-and-forget; the session machine never depends on the outcome.
type Trigger interface {
	Signal(action Action)
}

// FileTrigger signals the sensor by writing the action to a trigger file the
// sensor process watches.
type FileTrigger struct {
	path   string
	logger *log.Logger
}

// NewFileTrigger creates a trigger writing into the sensor directory.
func NewFileTrigger(dir string, logger *log.Logger) *FileTrigger {
	return &FileTrigger{path: filepath.Join(dir, "vitals_trigger.tmp"), logger: logger}
}

// Signal writes the action to the trigger file. Failures are logged only.
func (t *FileTrigger) Signal(action Action) {
	if err := os.WriteFile(t.path, []byte(action), 0o644); err != nil {
		if t.logger != nil {
			t.logger.Printf("vitals: trigger %s failed: %v", action, err)
		}
	}
}
