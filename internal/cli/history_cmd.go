// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/beauty-advisor/internal/export"
	"github.com/jeranaias/beauty-advisor/internal/model"
	"github.com/jeranaias/beauty-advisor/internal/session"
	"github.com/jeranaias/beauty-advisor/internal/ui/history"
	"github.com/jeranaias/beauty-advisor/internal/ui/styles"
)

// conversationSummary is one row of `history --json`.
type conversationSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Timestamp  time.Time `json:"timestamp"`
	IsFavorite bool      `json:"isFavorite"`
	Messages   int       `json:"messages"`
	Preview    string    `json:"preview,omitempty"`
}

func summarize(convs []model.Conversation) []conversationSummary {
	out := make([]conversationSummary, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		out = append(out, conversationSummary{
			ID:         c.ID,
			Title:      c.Title,
			Timestamp:  c.Timestamp,
			IsFavorite: c.IsFavorite,
			Messages:   len(c.Messages),
			Preview:    c.Preview(),
		})
	}
	return out
}

// lookup resolves ref against the saved conversations and returns a copy.
func (a *App) lookup(ref string) (model.Conversation, error) {
	ctrl := a.dispatcher.Controller()
	convs := ctrl.History()
	id, err := resolveRef(ref, nil, convs)
	if err != nil {
		return model.Conversation{}, err
	}
	for _, c := range convs {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Conversation{}, fmt.Errorf("%w: %s", ErrNoSuchConversation, ref)
}

func newHistoryCmd(app *App) *cobra.Command {
	var (
		query     string
		favorites bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"ls"},
		Short:   "List saved conversations",
		Long: `List saved conversations, favorites first and newest first within
each group. Use --search to filter by title or message text.`,
		Example: `  advisor history
  advisor history --search retinol
  advisor history --favorites --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(); err != nil {
				return err
			}
			defer app.close()

			out, err := app.dispatcher.Dispatch(cmd.Context(), session.Event{Action: session.ActionSearch, Arg: query})
			if err != nil {
				return err
			}
			convs := out.Conversations
			if favorites {
				var kept []model.Conversation
				for _, c := range convs {
					if c.IsFavorite {
						kept = append(kept, c)
					}
				}
				convs = kept
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return NewJSONResponse("history", summarize(convs)).Write(w)
			}
			if len(convs) == 0 {
				if query != "" || favorites {
					fmt.Fprintln(w, "No conversations match your search.")
				} else {
					fmt.Fprintln(w, "No conversations yet. Start chatting!")
				}
				return nil
			}
			printListing(w, convs, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "only conversations matching this text")
	cmd.Flags().BoolVarP(&favorites, "favorites", "f", false, "only favorite conversations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "browse",
		Short: "Browse conversations in a full-screen list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := RequiresTTY("browse history"); err != nil {
				return err
			}
			if err := app.open(); err != nil {
				return err
			}
			defer app.close()

			id, err := history.Run(cmd.Context(), app.dispatcher)
			if err != nil || id == "" {
				return err
			}
			printTranscript(cmd.OutOrStdout(), newRenderer(app.cfg.UI.RenderMarkdown && styles.Enabled(), TerminalWidth()-4),
				app.dispatcher.Controller().Active())
			return nil
		},
	})
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(); err != nil {
				return err
			}
			defer app.close()

			conv, err := app.lookup(args[0])
			if err != nil {
				return err
			}
			markdown := app.cfg.UI.RenderMarkdown && IsStdoutTTY() && styles.Enabled()
			printTranscript(cmd.OutOrStdout(), newRenderer(markdown, TerminalWidth()-4), conv)
			return nil
		},
	}
}

func newFavoriteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "favorite <id>",
		Aliases: []string{"fav"},
		Short:   "Toggle the favorite flag on a conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(); err != nil {
				return err
			}
			defer app.close()

			conv, err := app.lookup(args[0])
			if err != nil {
				return err
			}
			out, err := app.dispatcher.Dispatch(cmd.Context(), session.Event{Action: session.ActionFavorite, Arg: conv.ID})
			if err != nil {
				return err
			}
			state := "Removed from favorites"
			if out.Favorite {
				state = "Added to favorites"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", state, conv.Title)
			return nil
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(); err != nil {
				return err
			}
			defer app.close()

			conv, err := app.lookup(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !yes && !promptYesNo(cmd.InOrStdin(), w, fmt.Sprintf("Delete %q?", conv.Title)) {
				fmt.Fprintln(w, "Cancelled.")
				return nil
			}
			if _, err := app.dispatcher.Dispatch(cmd.Context(), session.Event{Action: session.ActionDelete, Arg: conv.ID}); err != nil {
				return err
			}
			fmt.Fprintf(w, "Deleted: %s\n", conv.Title)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var (
		format string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a conversation to Markdown or JSON",
		Example: `  advisor export 3f2a
  advisor export 3f2a --format json --out ~/Documents`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(); err != nil {
				return err
			}
			defer app.close()

			conv, err := app.lookup(args[0])
			if err != nil {
				return err
			}
			opts := export.DefaultOptions()
			opts.OutputDir = outDir
			exp, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}
			path, err := export.ExportToFile(&conv, exp, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "markdown or json")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}
