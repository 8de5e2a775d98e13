package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"swissknife/internal/util"
)

// maxRecordLogBytes caps the log lines kept in a persisted run record.
const maxRecordLogBytes = 64 * 1024

// RecordDir returns the directory run records are written to.
func RecordDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "swissknife", "runs"), nil
}

// SaveRecord writes result as <dir>/<run_id>.json and returns the file path.
func SaveRecord(dir string, result RunResult) (string, error) {
	if result.RunID == "" {
		return "", fmt.Errorf("run record without run id")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	logs, truncated, _ := util.TruncateLinesAndBytes(result.Logs, 0, maxRecordLogBytes)
	if logs == nil {
		logs = []string{}
	}
	result.Logs = logs
	result.LogsTruncated = result.LogsTruncated || truncated

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run record: %w", err)
	}
	path := filepath.Join(dir, result.RunID+".json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", fmt.Errorf("write run record: %w", err)
	}
	return path, nil
}
