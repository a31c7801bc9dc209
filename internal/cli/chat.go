// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/beauty-advisor/internal/config"
	"github.com/jeranaias/beauty-advisor/internal/session"
	"github.com/jeranaias/beauty-advisor/internal/ui/styles"
)

const chatPrompt = "you> "

// =============================================================================
// INPUT
// =============================================================================

// lineReader is the REPL's source of input lines. Prompt returns io.EOF when
// input ends.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history loaded from the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// Prompt reads a line with history navigation.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (c *ChatCLI) Close() error {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	return c.line.Close()
}

// scanReader reads lines from a non-terminal input such as a pipe.
type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newScanReader(in io.Reader, out io.Writer) *scanReader {
	return &scanReader{scanner: bufio.NewScanner(in), out: out}
}

func (s *scanReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.scanner.Scan() {
		fmt.Fprintln(s.out)
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

func (s *scanReader) Close() error { return nil }

// =============================================================================
// CHAT COMMAND
// =============================================================================

func newChatCmd(app *App) *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with the advisor",
		Long: `Start an interactive chat with the advisor.

Type a question and press Enter. Lines starting with / are commands;
type /help to list them.`,
		Example: `  advisor chat
  advisor chat --resume`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, app, resume)
		},
	}
	cmd.Flags().BoolVarP(&resume, "resume", "r", false, "continue the most recent conversation")
	return cmd
}

func runChat(cmd *cobra.Command, app *App, resume bool) error {
	if err := app.open(); err != nil {
		return err
	}
	defer app.close()

	out := cmd.OutOrStdout()
	interactive := cmd.InOrStdin() == os.Stdin && IsTTY()

	var in lineReader
	if interactive {
		in = NewChatCLI()
	} else {
		in = newScanReader(cmd.InOrStdin(), out)
	}
	defer in.Close()

	markdown := app.cfg.UI.RenderMarkdown && IsStdoutTTY() && styles.Enabled()
	r := &repl{
		app:         app,
		dispatcher:  app.dispatcher,
		in:          in,
		out:         out,
		render:      newRenderer(markdown, TerminalWidth()-4),
		interactive: interactive,
		now:         time.Now,
	}
	r.commands = newSlashTable()

	configPath, _ := app.configFile()
	printBanner(out, app.dispatcher.Suggestions(), app.endpointConfigured(), configPath)

	if resume {
		if app.dispatcher.Controller().ResumeLatest() {
			printTranscript(out, r.render, app.dispatcher.Controller().Active())
		} else {
			fmt.Fprintln(out, styles.Muted.Render("No saved conversations yet. Starting a new chat."))
		}
	}
	return r.loop(cmd.Context())
}

// =============================================================================
// REPL
// =============================================================================

type repl struct {
	app        *App
	dispatcher *session.Dispatcher
	in         lineReader
	out        io.Writer
	render     *renderer
	commands   []slashCommand
	now        func() time.Time

	// interactive enables the typing indicator.
	interactive bool

	// listing holds the IDs of the last numbered listing for /load N.
	listing []string
	quit    bool
}

func (r *repl) loop(ctx context.Context) error {
	for !r.quit {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.in.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := r.handle(ctx, line); err != nil {
			fmt.Fprintln(r.out, styles.Error.Render(err.Error()))
		}
	}
	return nil
}

func (r *repl) handle(ctx context.Context, line string) error {
	if strings.HasPrefix(line, "/") {
		name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
		cmd, ok := r.lookup(name)
		if !ok {
			return fmt.Errorf("unknown command /%s (type /help)", name)
		}
		return cmd.run(ctx, r, strings.TrimSpace(arg))
	}
	if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
		r.quit = true
		return nil
	}
	return r.send(ctx, session.Event{Action: session.ActionSend, Arg: line})
}

func (r *repl) lookup(name string) (slashCommand, bool) {
	name = strings.ToLower(name)
	for _, c := range r.commands {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return slashCommand{}, false
}

// send dispatches a send or suggest event and prints the reply or the
// failure notice.
func (r *repl) send(ctx context.Context, ev session.Event) error {
	if r.interactive {
		fmt.Fprint(r.out, styles.Muted.Render("Advisor is typing..."))
	}
	out, err := r.dispatcher.Dispatch(ctx, ev)
	if r.interactive {
		fmt.Fprint(r.out, "\r\033[K")
	}

	switch {
	case err == nil:
		fmt.Fprintln(r.out)
		printMessage(r.out, r.render, *out.Reply)
		return nil
	case errors.Is(err, session.ErrEmptyMessage):
		return nil
	case errors.Is(err, session.ErrSendInProgress):
		return errors.New("still waiting for the previous reply")
	}
	if notice := session.Notice(err); notice != "" {
		r.app.log.Debug().Err(err).Msg("send failed")
		fmt.Fprintln(r.out, styles.Warning.Render(notice))
		return nil
	}
	return err
}
