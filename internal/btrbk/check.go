package btrbk

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mkeller/btrbkgen/internal/errors"
)

// RejectionError reports that btrbk rejected a rendered configuration.
// It carries the full rendered text so the caller can surface it.
type RejectionError struct {
	// Diagnostic is the combined output of the btrbk invocation.
	Diagnostic string
	// Rendered is the configuration text that was rejected.
	Rendered string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("btrbk rejected configuration: %s", strings.TrimSpace(e.Diagnostic))
}

func (e *RejectionError) Unwrap() error { return errors.ErrConfigRejected }

// Checker round-trips rendered configuration text through the btrbk binary
// before anything is deployed.
type Checker struct {
	// BtrbkPath is the btrbk binary to invoke.
	BtrbkPath string
	// TempDir overrides the directory for the temporary config file.
	// Empty means the system default.
	TempDir string
}

// Check writes renderedText to a uniquely named temporary file and invokes
// btrbk against it in listing mode, which parses the configuration without
// side effects. btrbk does not reliably signal configuration syntax errors
// through its exit status in this mode; its characteristic behavior is to
// echo the config file path in its diagnostics. Check therefore treats the
// temporary path appearing in the combined output as the failure signal,
// and a non-zero exit additionally as failure. This is a string-containment
// heuristic and is as brittle as it sounds; it mirrors how btrbk actually
// behaves, and there is no structured diagnostic channel to prefer.
//
// The invocation blocks until btrbk exits; cancel ctx to bound it.
func (c *Checker) Check(ctx context.Context, renderedText string) error {
	tmp, err := os.CreateTemp(c.TempDir, "btrbkgen-*.conf")
	if err != nil {
		return errors.Wrap(err, "creating temporary config")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(renderedText); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmpPath)
	}

	cmd := exec.CommandContext(ctx, c.BtrbkPath, "-c", tmpPath, "ls", "all")
	out, runErr := cmd.CombinedOutput()

	if strings.Contains(string(out), tmpPath) {
		return &RejectionError{
			Diagnostic: string(out),
			Rendered:   renderedText,
		}
	}
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); ok {
			return &RejectionError{
				Diagnostic: string(out),
				Rendered:   renderedText,
			}
		}
		// btrbk missing or not executable is an environment fault,
		// not a configuration problem.
		return errors.Wrapf(runErr, "running %s", c.BtrbkPath)
	}

	return nil
}
