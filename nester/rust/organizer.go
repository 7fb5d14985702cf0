package nester

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Organizer is an optional pre-pass that tidies imports before they are
// normalized, such as an editor's "organize imports" action. It is best
// effort: when it fails the original source is used.
type Organizer interface {
	Organize(ctx context.Context, filePath string, source []byte) ([]byte, error)
}

var errNoOutput = errors.New("no output")

// CommandOrganizer pipes the source through an external command, for
// example `rustfmt --emit stdout`, and uses what it prints.
type CommandOrganizer struct {
	Argv []string
}

var _ Organizer = (*CommandOrganizer)(nil)

func (o *CommandOrganizer) Organize(ctx context.Context, filePath string, source []byte) ([]byte, error) {
	if len(o.Argv) == 0 {
		return nil, fmt.Errorf("empty organize command")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.Argv[0], o.Argv[1:]...)
	cmd.Stdin = bytes.NewReader(source)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", strings.Join(o.Argv, " "), err, msg)
		}
		return nil, fmt.Errorf("%s: %w", strings.Join(o.Argv, " "), err)
	}
	if len(bytes.TrimSpace(stdout.Bytes())) == 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(o.Argv, " "), errNoOutput)
	}
	return stdout.Bytes(), nil
}
