package preflight

import (
	"context"
	"fmt"
	"strings"

	"echoes/internal/config"
)

// Result reports the outcome of a single preflight check. Informational
// results never fail a run.
type Result struct {
	Name          string
	Passed        bool
	Informational bool
	Detail        string
}

// Options tunes RunAll.
type Options struct {
	// Online enables checks that contact remote backends.
	Online bool
}

// Required runs the checks a run cannot start without: staging directory
// access and free space.
func Required(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckFreeSpace("Staging free space", cfg.Paths.StagingDir, uint64(cfg.Workflow.MinFreeMiB)),
	}
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}
	results := Required(cfg)
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", dir))
	}
	if dir := strings.TrimSpace(cfg.Watch.Dir); dir != "" {
		results = append(results, CheckDirectoryAccess("Watch directory", dir))
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		detail := status.Path
		if status.Version != "" {
			detail = status.Version
		}
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:          status.Name,
			Passed:        status.Available,
			Informational: status.Optional,
			Detail:        detail,
		})
	}
	results = append(results, CheckTranscriptionBackend(cfg))
	results = append(results, CheckSummarizationBackend(ctx, cfg, opts.Online))
	results = append(results, CheckIntegrations(cfg)...)
	return results
}

// Failed returns the non-informational results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Informational {
			failed = append(failed, r)
		}
	}
	return failed
}

// Error joins failed checks into one error, or returns nil.
func Error(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}
