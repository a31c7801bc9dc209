// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/beauty-advisor/internal/export"
	"github.com/jeranaias/beauty-advisor/internal/session"
	"github.com/jeranaias/beauty-advisor/internal/ui/history"
	"github.com/jeranaias/beauty-advisor/internal/ui/styles"
)

// slashCommand is one /command available inside the chat REPL.
type slashCommand struct {
	name    string
	aliases []string
	usage   string
	help    string
	run     func(ctx context.Context, r *repl, arg string) error
}

func newSlashTable() []slashCommand {
	return []slashCommand{
		{name: "help", aliases: []string{"h", "?"}, help: "Show this help", run: cmdHelp},
		{name: "new", help: "Start a new conversation", run: cmdNew},
		{name: "history", aliases: []string{"ls"}, usage: "[query]", help: "List saved conversations", run: cmdHistory},
		{name: "search", usage: "<query>", help: "Search titles and messages", run: cmdSearch},
		{name: "load", aliases: []string{"open"}, usage: "<n|id>", help: "Open a conversation from the last listing", run: cmdLoad},
		{name: "favorite", aliases: []string{"fav"}, usage: "[n|id]", help: "Toggle favorite (current conversation by default)", run: cmdFavorite},
		{name: "delete", aliases: []string{"rm"}, usage: "<n|id>", help: "Delete a conversation", run: cmdDelete},
		{name: "suggest", usage: "[n]", help: "List suggestions, or send suggestion n", run: cmdSuggest},
		{name: "browse", help: "Open the full-screen history browser", run: cmdBrowse},
		{name: "show", help: "Reprint the current conversation", run: cmdShow},
		{name: "export", usage: "[markdown|json]", help: "Export the current conversation", run: cmdExport},
		{name: "quit", aliases: []string{"q", "exit"}, help: "Leave the chat", run: cmdQuit},
	}
}

func cmdHelp(_ context.Context, r *repl, _ string) error {
	fmt.Fprintln(r.out, styles.Title.Render("Commands"))
	for _, c := range r.commands {
		name := "/" + c.name
		if c.usage != "" {
			name += " " + c.usage
		}
		fmt.Fprintf(r.out, "  %-24s %s\n", name, styles.Muted.Render(c.help))
	}
	fmt.Fprintln(r.out)
	return nil
}

func cmdNew(ctx context.Context, r *repl, _ string) error {
	if _, err := r.dispatcher.Dispatch(ctx, session.Event{Action: session.ActionNewChat}); err != nil {
		return err
	}
	fmt.Fprintln(r.out, styles.Success.Render("Started a new conversation."))
	return nil
}

func cmdHistory(ctx context.Context, r *repl, query string) error {
	return r.list(ctx, query)
}

func cmdSearch(ctx context.Context, r *repl, query string) error {
	if query == "" {
		return errors.New("usage: /search <query>")
	}
	return r.list(ctx, query)
}

// list prints the conversations matching query and remembers their order
// for numeric references.
func (r *repl) list(ctx context.Context, query string) error {
	out, err := r.dispatcher.Dispatch(ctx, session.Event{Action: session.ActionSearch, Arg: query})
	if err != nil {
		return err
	}
	if len(out.Conversations) == 0 {
		r.listing = nil
		if query != "" {
			fmt.Fprintln(r.out, styles.Muted.Render("No conversations match your search."))
		} else {
			fmt.Fprintln(r.out, styles.Muted.Render("No conversations yet. Start chatting!"))
		}
		return nil
	}
	r.listing = printListing(r.out, out.Conversations, r.now())
	return nil
}

func (r *repl) resolve(ref string) (string, error) {
	return resolveRef(ref, r.listing, r.dispatcher.Controller().History())
}

func cmdLoad(ctx context.Context, r *repl, ref string) error {
	if ref == "" {
		return errors.New("usage: /load <n|id>")
	}
	id, err := r.resolve(ref)
	if err != nil {
		return err
	}
	out, err := r.dispatcher.Dispatch(ctx, session.Event{Action: session.ActionLoad, Arg: id})
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out)
	printTranscript(r.out, r.render, out.Active)
	return nil
}

func cmdFavorite(ctx context.Context, r *repl, ref string) error {
	id := ""
	if ref != "" {
		var err error
		if id, err = r.resolve(ref); err != nil {
			return err
		}
	} else if r.dispatcher.Controller().Active().IsEmpty() {
		return errors.New("nothing to favorite yet; send a message first")
	}
	out, err := r.dispatcher.Dispatch(ctx, session.Event{Action: session.ActionFavorite, Arg: id})
	if err != nil {
		return err
	}
	if out.Favorite {
		fmt.Fprintln(r.out, styles.Favorite.Render(styles.FavoriteMark)+" Added to favorites.")
	} else {
		fmt.Fprintln(r.out, "Removed from favorites.")
	}
	return nil
}

func cmdDelete(ctx context.Context, r *repl, ref string) error {
	if ref == "" {
		return errors.New("usage: /delete <n|id>")
	}
	id, err := r.resolve(ref)
	if err != nil {
		return err
	}
	if _, err := r.dispatcher.Dispatch(ctx, session.Event{Action: session.ActionDelete, Arg: id}); err != nil {
		return err
	}
	r.listing = nil
	fmt.Fprintln(r.out, styles.Success.Render("Conversation deleted."))
	return nil
}

func cmdSuggest(ctx context.Context, r *repl, arg string) error {
	if arg == "" {
		printSuggestions(r.out, r.dispatcher.Suggestions())
		return nil
	}
	return r.send(ctx, session.Event{Action: session.ActionSuggest, Arg: arg})
}

func cmdBrowse(ctx context.Context, r *repl, _ string) error {
	if !r.interactive {
		return &TTYRequiredError{Operation: "browse history"}
	}
	id, err := history.Run(ctx, r.dispatcher)
	if err != nil {
		return err
	}
	if id != "" {
		printTranscript(r.out, r.render, r.dispatcher.Controller().Active())
	}
	return nil
}

func cmdShow(_ context.Context, r *repl, _ string) error {
	active := r.dispatcher.Controller().Active()
	if active.IsEmpty() {
		fmt.Fprintln(r.out, styles.Muted.Render("This conversation is empty."))
		return nil
	}
	printTranscript(r.out, r.render, active)
	return nil
}

func cmdExport(_ context.Context, r *repl, format string) error {
	active := r.dispatcher.Controller().Active()
	if active.IsEmpty() {
		return errors.New("nothing to export yet")
	}
	opts := export.DefaultOptions()
	exp, err := export.ForFormat(format, opts)
	if err != nil {
		return fmt.Errorf("%w (use %s)", err, strings.Join(export.Formats(), " or "))
	}
	path, err := export.ExportToFile(&active, exp, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, styles.Success.Render("Exported to "+path))
	return nil
}

func cmdQuit(_ context.Context, r *repl, _ string) error {
	r.quit = true
	return nil
}
