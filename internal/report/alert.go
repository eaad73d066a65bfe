package report

import (
	"encoding/json"
	"fmt"
	"os"
)

// Alert is the persisted failure report of a run.
type Alert struct {
	Channels []string `json:"channels"`
	Message  string   `json:"message"`
	RunID    string   `json:"runId,omitempty"`
}

// WriteAlert writes a as JSON to path.
func WriteAlert(path string, a Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write alert file: %w", err)
	}
	return nil
}

// ReadAlert reads an alert previously written by WriteAlert.
func ReadAlert(path string) (Alert, error) {
	var a Alert
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return a, fmt.Errorf("failed to read alert file: %w", err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("failed to parse alert file %s: %w", path, err)
	}
	if a.Message == "" {
		return a, fmt.Errorf("alert file %s has no message", path)
	}
	return a, nil
}
