package jobs

import (
	"strings"

	"github.com/google/uuid"
)

// RunIDPrefix marks identifiers of download runs.
const RunIDPrefix = "run-"

// NewRunID creates a random identifier for one download run. It tags log
// lines and metrics so a single run can be picked out of shared output.
func NewRunID() string {
	return RunIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
