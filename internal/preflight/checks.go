package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"echoes/internal/config"
	"echoes/internal/deps"
	"echoes/internal/services/llm"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minMiB available to unprivileged users. minMiB == 0 disables the check.
func CheckFreeSpace(name, path string, minMiB uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	freeMiB := stat.Bavail * uint64(stat.Bsize) / (1 << 20)
	detail := fmt.Sprintf("%d MiB free", freeMiB)
	if minMiB > 0 && freeMiB < minMiB {
		return Result{Name: name, Detail: fmt.Sprintf("%s, need %d MiB", detail, minMiB)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// SystemRequirements lists the binaries cfg needs.
func SystemRequirements(cfg *config.Config) []deps.Requirement {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Required for converting mp3, m4a and ogg input",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Audio.FFprobeBinary,
			Description: "Used for input diagnostics",
			Optional:    true,
			VersionArgs: []string{"-version"},
		},
	}
	if cfg.Transcription.Backend == "whisperx" {
		requirements = append(requirements, deps.Requirement{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Required for WhisperX transcription",
			VersionArgs: []string{"--version"},
		})
	}
	return requirements
}

// CheckSystemDeps evaluates all system-level dependencies for cfg.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, SystemRequirements(cfg))
}

// CheckTranscriptionBackend reports whether the selected backend has what it
// needs to run.
func CheckTranscriptionBackend(cfg *config.Config) Result {
	name := "Transcription (" + cfg.Transcription.Backend + ")"
	switch cfg.Transcription.Backend {
	case "http":
		if strings.TrimSpace(cfg.Transcription.HTTPAPIKey) == "" {
			return Result{Name: name, Detail: "API key missing (transcription.http_api_key or TRANSCRIPTION_API_KEY)"}
		}
		return Result{Name: name, Passed: true, Detail: cfg.Transcription.HTTPModel + " at " + cfg.Transcription.HTTPURL}
	default:
		detail := "model " + cfg.Transcription.WhisperXModel
		if cfg.Transcription.WhisperXCUDAEnabled {
			detail += " (cuda)"
		}
		return Result{Name: name, Passed: true, Detail: detail}
	}
}

// CheckSummarizationBackend reports credential presence and, when online is
// set, whether the LLM endpoint accepts the key.
func CheckSummarizationBackend(ctx context.Context, cfg *config.Config, online bool) Result {
	s := cfg.Summarization
	name := "Summarization (" + s.Backend + ")"
	if strings.TrimSpace(s.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	if !online || s.Backend != "llm" {
		return Result{Name: name, Passed: true, Detail: "API key present, model " + s.Model}
	}
	return CheckLLM(ctx, name, llm.Config{
		APIKey:  s.APIKey,
		BaseURL: s.BaseURL,
		Model:   s.Model,
		Referer: s.Referer,
		Title:   s.Title,
	})
}

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg llm.Config) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(cfg, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckIntegrations reports which optional integrations are enabled.
func CheckIntegrations(cfg *config.Config) []Result {
	tasks := Result{Name: "Task manager", Informational: true, Detail: "disabled (no TASK_MANAGER_API_KEY)"}
	if cfg.TasksEnabled() {
		tasks.Passed = true
		tasks.Detail = cfg.Tasks.BaseURL
	}
	calendar := Result{Name: "Calendar", Informational: true, Detail: "disabled (no CALENDAR_API_KEY)"}
	if cfg.CalendarEnabled() {
		calendar.Passed = true
		calendar.Detail = cfg.Calendar.Service + " at " + cfg.CalendarBaseURL()
	}
	notify := Result{Name: "Notifications", Informational: true, Detail: "disabled (no ntfy topic)"}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		notify.Passed = true
		notify.Detail = topic
	}
	return []Result{tasks, calendar, notify}
}

func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
