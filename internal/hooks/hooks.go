// Package hooks runs user shell commands on wizard events.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/linkwizard/internal/logger"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the hooks configuration file.
const ConfigFileName = ".linkwizard.hooks.yml"

// LoadConfig loads the hooks configuration from workDir.
// Returns nil if the file doesn't exist (hooks are optional) and an error only
// if it exists but cannot be parsed.
func LoadConfig(workDir string) (*Config, error) {
	configPath := filepath.Join(workDir, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No hooks config found at %s", configPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hooks config: %w", err)
	}

	logger.Debug("Loaded hooks config from %s (version: %d)", configPath, cfg.Version)
	return &cfg, nil
}

// Variables are expanded in hook commands and exported to the hook's
// environment.
type Variables struct {
	ExternalID  string
	DisplayName string
	Identity    string
}

func (v Variables) pairs() [][2]string {
	return [][2]string{
		{"external_id", v.ExternalID},
		{"display_name", v.DisplayName},
		{"identity", v.Identity},
	}
}

// Execute runs a hook command and returns its output.
// {{external_id}}, {{display_name}} and {{identity}} are replaced with
// shell-quoted values and also exported as LINKWIZARD_* variables.
// Failures and timeouts are reported in the output with a nil error; only
// cancellation of ctx is returned as an error.
func Execute(ctx context.Context, hook *HookConfig, workDir string, vars Variables) (string, error) {
	if hook == nil || hook.Command == "" {
		return "", nil
	}

	command := expandVariables(hook.Command, vars)
	logger.Debug("Executing hook command: %s", command)

	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.Env = os.Environ()
	for _, p := range vars.pairs() {
		cmd.Env = append(cmd.Env, "LINKWIZARD_"+strings.ToUpper(p[0])+"="+p[1])
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if execCtx.Err() == context.DeadlineExceeded {
		logger.Warn("Hook command timed out after %ds: %s", timeout, command)
		return fmt.Sprintf("[Hook timed out after %ds]\nPartial output:\n%s", timeout, stdout.String()), nil
	}

	if err != nil {
		logger.Warn("Hook command failed: %v", err)
		output := stdout.String()
		if stderr.Len() > 0 {
			output += "\n[stderr]\n" + stderr.String()
		}
		return fmt.Sprintf("[Hook command failed: %v]\n%s", err, output), nil
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		logger.Debug("Hook stderr: %s", stderr.String())
		output += "\n[stderr]\n" + stderr.String()
	}

	logger.Debug("Hook executed successfully, output length: %d bytes", len(output))
	return output, nil
}

// Runner binds a loaded config to a working directory. A nil config runs
// nothing.
type Runner struct {
	cfg     *Config
	workDir string
}

// NewRunner loads the hooks config from workDir.
func NewRunner(workDir string) (*Runner, error) {
	cfg, err := LoadConfig(workDir)
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, workDir: workDir}, nil
}

// Link runs the on_link hook.
func (r *Runner) Link(ctx context.Context, vars Variables) (string, error) {
	if r == nil || r.cfg == nil {
		return "", nil
	}
	return Execute(ctx, r.cfg.Hooks.OnLink, r.workDir, vars)
}

// StartAutomation runs the on_start_automation hook.
func (r *Runner) StartAutomation(ctx context.Context, vars Variables) (string, error) {
	if r == nil || r.cfg == nil {
		return "", nil
	}
	return Execute(ctx, r.cfg.Hooks.OnStartAutomation, r.workDir, vars)
}

func expandVariables(command string, vars Variables) string {
	result := command
	for _, p := range vars.pairs() {
		result = strings.ReplaceAll(result, "{{"+p[0]+"}}", shellQuote(p[1]))
	}
	return result
}

// shellQuote wraps s in single quotes for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
