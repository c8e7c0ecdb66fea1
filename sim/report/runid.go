package report

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RunIDPrefix is prepended to every generated run ID.
var RunIDPrefix = "run-"

// runIDAlphabet is lowercase-only so IDs are safe as directory names on
// case-insensitive filesystems.
const runIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const runIDLength = 10

// NewRunID returns a short unique identifier used to tag one run's report files.
func NewRunID() (string, error) {
	id, err := nanoid.Generate(runIDAlphabet, runIDLength)
	if err != nil {
		return "", fmt.Errorf("generating run id: %w", err)
	}
	return RunIDPrefix + id, nil
}
