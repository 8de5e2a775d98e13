package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"swissknife/internal/paths"
	"swissknife/internal/runner"

	"gopkg.in/yaml.v3"
)

// ErrNoJobs is returned for a job file without jobs.
var ErrNoJobs = errors.New("batch file has no jobs")

// Job is one entry of a batch file.
type Job struct {
	Tool   string            `yaml:"tool"`
	Inputs []string          `yaml:"inputs"`
	Output string            `yaml:"output"`
	Params map[string]string `yaml:"params"`
}

// File is a parsed batch file.
type File struct {
	Concurrency int   `yaml:"concurrency"`
	Jobs        []Job `yaml:"jobs"`
}

// Load reads a batch file. Relative inputs and outputs are resolved against the
// directory that holds the file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read batch file: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	if len(file.Jobs) == 0 {
		return File{}, ErrNoJobs
	}
	base := filepath.Dir(path)
	for i := range file.Jobs {
		job := &file.Jobs[i]
		if strings.TrimSpace(job.Tool) == "" {
			return File{}, fmt.Errorf("job %d: tool is required", i+1)
		}
		job.Inputs = paths.ResolveAll(base, paths.SplitList(job.Inputs))
		job.Output = paths.Resolve(base, strings.TrimSpace(job.Output))
	}
	return file, nil
}

// Requests converts the jobs into runner requests.
func (f File) Requests() []runner.Request {
	reqs := make([]runner.Request, 0, len(f.Jobs))
	for _, job := range f.Jobs {
		reqs = append(reqs, runner.Request{ToolID: job.Tool, Inputs: job.Inputs, Output: job.Output, Params: job.Params})
	}
	return reqs
}
