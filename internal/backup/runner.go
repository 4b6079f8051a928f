package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
)

// Runner executes external database-management tools.
//
// Commands are always executed with an argument array, never through a
// shell, so credentials and database names cannot be used for injection.
type Runner interface {
	// Run executes name with args and the given environment overlay
	// appended to the process environment. It blocks until the command
	// exits and returns the combined output. A non-zero exit or spawn
	// failure is returned as a process execution error carrying the
	// captured output.
	Run(ctx context.Context, name string, args []string, env []string) ([]byte, error)
}

type execRunner struct {
	log     logger.Logger
	timeout time.Duration
}

// NewRunner creates a Runner with the given per-command timeout.
// A timeout of zero disables the limit.
func NewRunner(log logger.Logger, timeout time.Duration) Runner {
	return &execRunner{log: log, timeout: timeout}
}

func (r *execRunner) Run(ctx context.Context, name string, args []string, env []string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// The env overlay carries credentials; log the command line only.
	r.log.Debug("Executing external command", "command", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)

	start := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return output, gverrors.NewProcessExecution(
				fmt.Sprintf("%s timed out after %s", name, r.timeout),
				string(output), ctx.Err())
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return output, gverrors.NewProcessExecution(
				fmt.Sprintf("%s exited with code %d", name, exitErr.ExitCode()),
				string(output), err)
		}
		return output, gverrors.NewProcessExecution(
			fmt.Sprintf("failed to start %s", name), string(output), err)
	}

	r.log.Debug("External command completed",
		"command", name, "duration", time.Since(start).Round(time.Millisecond).String())
	return output, nil
}
