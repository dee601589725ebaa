package rendering

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// killGrace bounds how long Wait blocks on output pipes after the process is killed
const killGrace = 500 * time.Millisecond

// maxStderr caps the engine diagnostics carried in an error message
const maxStderr = 4 << 10

// ProcessRenderer pipes diagram source through a local engine process, by
// default `java -jar plantuml.jar -pipe -tsvg`. Every call owns its process.
type ProcessRenderer struct {
	command string
	args    []string
	limits  *Limits
	logger  *zap.Logger
}

// NewProcessRenderer creates a renderer that runs command with args
func NewProcessRenderer(command string, args []string, limits *Limits, logger *zap.Logger) *ProcessRenderer {
	return &ProcessRenderer{
		command: command,
		args:    append([]string(nil), args...),
		limits:  limits,
		logger:  logger,
	}
}

// Render runs the engine once. Caller cancellation is ignored; only the
// configured timeout stops a render.
func (r *ProcessRenderer) Render(ctx context.Context, source string) (string, error) {
	timeout := r.limits.Timeout()
	cmdCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, r.command, r.args...)
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace
	configureKill(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		r.logger.Error("Failed to start renderer process", zap.String("command", r.command), zap.Error(err))
		return "", startupError(err)
	}

	err := cmd.Wait()
	elapsed := time.Since(start)

	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		r.logger.Warn("Renderer process timed out",
			zap.Duration("timeout", timeout),
			zap.Duration("elapsed", elapsed),
		)
		return "", timeoutError(timeout, cmdCtx.Err())
	}

	if err != nil {
		detail := strings.TrimSpace(truncate(stderr.String(), maxStderr))
		r.logger.Debug("Renderer process failed",
			zap.Error(err),
			zap.String("stderr", detail),
			zap.Duration("elapsed", elapsed),
		)
		re := renderFailure(detail)
		re.Cause = err
		return "", re
	}

	if err := checkSVG(stdout.Bytes()); err != nil {
		detail := strings.TrimSpace(truncate(stderr.String(), maxStderr))
		re := renderFailure(detail)
		re.Cause = err
		return "", re
	}

	return stdout.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
