// Package host adapts the host platform's lifecycle uninstaller.
package host

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

// DefaultCommand is the uninstall command template used when none is configured.
const DefaultCommand = "php cli/acme.php extension:uninstall --type={kind} {id}"

// ErrNoCommand is returned when the uninstall template is empty.
var ErrNoCommand = errors.New("no uninstall command configured")

// CommandUninstaller runs the host's uninstall CLI for one extension.
// The template is split on whitespace and {kind} and {id} are substituted per
// argument; no shell is involved. Exit status 0 means the host completed its
// full uninstall routine.
type CommandUninstaller struct {
	template []string
	dir      string
}

// NewCommandUninstaller creates an uninstaller from a command template,
// run with dir as working directory (usually the host root).
func NewCommandUninstaller(template, dir string) *CommandUninstaller {
	return &CommandUninstaller{template: strings.Fields(template), dir: dir}
}

// Args returns the expanded argument vector for kind and id.
func (u *CommandUninstaller) Args(kind extension.Kind, id int64) []string {
	r := strings.NewReplacer("{kind}", string(kind), "{id}", strconv.FormatInt(id, 10))
	args := make([]string, len(u.template))
	for i, a := range u.template {
		args[i] = r.Replace(a)
	}
	return args
}

// Uninstall runs the command for one extension. It returns false with an
// error when the command cannot start or exits non-zero.
func (u *CommandUninstaller) Uninstall(ctx context.Context, kind extension.Kind, id int64) (bool, error) {
	args := u.Args(kind, id)
	if len(args) == 0 {
		return false, ErrNoCommand
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = u.dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("%s failed: %w (output: %s)", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return true, nil
}

// Check verifies the command's executable can be found.
func (u *CommandUninstaller) Check() error {
	if len(u.template) == 0 {
		return ErrNoCommand
	}
	if _, err := exec.LookPath(u.template[0]); err != nil {
		return fmt.Errorf("uninstall command %q not found: %w", u.template[0], err)
	}
	return nil
}
