package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/rablc/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-compile-retry loop.
// It writes the formatted session source to a temp file, opens the user's
// editor, and loads the result into the session. On a compile error the user
// is asked whether to edit again; declining ends the REPL.
type editCommand struct {
	session *session
	ctxFunc func() context.Context
	logger  log.Logger
	changed bool
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. Clearing the file cancels the edit and leaves
// the session unchanged. It returns [ErrEditDeclined] if the user declines
// to edit again after an error.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := c.session.format(ctx, 2)
	if err != nil {
		return fmt.Errorf("format session: %w", err)
	}

	f, err := os.CreateTemp("", "rablc-repl-*.rabl")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(c.stdin)

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		data, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		content = string(data)
		if strings.TrimSpace(content) == "" {
			return nil
		}

		loadErr := c.session.load(ctx, content)

		c.logger.TraceContext(ctx, "editor compile attempt",
			slog.Int("content_length", len(content)),
			slog.Bool("success", loadErr == nil),
		)

		if loadErr == nil {
			c.changed = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\nCompile error: %s\n", loadErr)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor runs $EDITOR (or [defaultEditor]) on the file at path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) error {
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
