package bench

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Metrics represents metrics for a single workload or benchmark
type Metrics struct {
	Name       string             `json:"name"`
	Category   string             `json:"category"`
	Operations int                `json:"operations"`
	NsPerOp    float64            `json:"ns_per_op"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Summary represents all results written to one file
type Summary struct {
	Timestamp string    `json:"timestamp"`
	CommitID  string    `json:"commit_id"`
	Branch    string    `json:"branch"`
	GoVersion string    `json:"go_version"`
	Results   []Metrics `json:"results"`
}

// gitInfo reads the branch and short commit id from repoRoot/.git, falling
// back to "dev" and "local".
func gitInfo(repoRoot string) (branch, commitID string) {
	branch, commitID = "dev", "local"

	head, err := os.ReadFile(filepath.Join(repoRoot, ".git", "HEAD"))
	if err != nil {
		return branch, commitID
	}
	content := strings.TrimSpace(string(head))
	if !strings.HasPrefix(content, "ref: ") {
		// Detached HEAD holds the commit itself.
		return branch, shortCommit(content)
	}

	ref := strings.TrimPrefix(content, "ref: ")
	branch = strings.TrimPrefix(ref, "refs/heads/")
	if data, err := os.ReadFile(filepath.Join(repoRoot, ".git", ref)); err == nil {
		commitID = shortCommit(strings.TrimSpace(string(data)))
	}
	return branch, commitID
}

func shortCommit(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// Load reads a summary file.
func Load(path string) (Summary, error) {
	var s Summary
	data, err := os.ReadFile(path)
	if err != nil {
		return s, errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "parse %s", path)
	}
	return s, nil
}

// Save appends m to the summary at path, creating the file and its directory
// if needed. Git info is taken from repoRoot.
func Save(path, repoRoot string, m Metrics) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}

	branch, commitID := gitInfo(repoRoot)
	summary := Summary{
		Timestamp: time.Now().Format(time.RFC3339),
		CommitID:  commitID,
		Branch:    branch,
		GoVersion: runtime.Version(),
		Results:   []Metrics{m},
	}

	// Merge with existing results if available
	if existing, err := Load(path); err == nil {
		summary.Results = append(existing.Results, m)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal summary")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
