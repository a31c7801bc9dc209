// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/beauty-advisor/internal/model"
	"github.com/jeranaias/beauty-advisor/internal/ui/history"
	"github.com/jeranaias/beauty-advisor/internal/ui/styles"
	"github.com/jeranaias/beauty-advisor/internal/util"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderer prints advisor replies, through glamour when enabled.
type renderer struct {
	md *glamour.TermRenderer
}

// newRenderer returns a plain renderer unless markdown is set. A glamour
// setup failure also falls back to plain text.
func newRenderer(markdown bool, width int) *renderer {
	if !markdown {
		return &renderer{}
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &renderer{}
	}
	return &renderer{md: md}
}

func (r *renderer) render(content string) string {
	if r.md == nil {
		return strings.TrimSpace(content) + "\n"
	}
	out, err := r.md.Render(content)
	if err != nil {
		return strings.TrimSpace(content) + "\n"
	}
	return out
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printMessage(w io.Writer, r *renderer, msg model.Message) {
	label := styles.UserLabel.Render(msg.Role.DisplayName())
	if msg.Role == model.RoleAssistant {
		label = styles.AdvisorLabel.Render(msg.Role.DisplayName())
	}
	if !msg.Timestamp.IsZero() {
		label += " " + styles.Muted.Render(history.MessageTime(msg.Timestamp))
	}
	fmt.Fprintln(w, label)
	if msg.Role == model.RoleAssistant {
		fmt.Fprintln(w, r.render(msg.Content))
		return
	}
	fmt.Fprintln(w, strings.TrimSpace(msg.Content))
	fmt.Fprintln(w)
}

func printTranscript(w io.Writer, r *renderer, conv model.Conversation) {
	title := conv.Title
	if title == "" {
		title = model.DefaultTitle
	}
	header := styles.Title.Render(title)
	if conv.IsFavorite {
		header += " " + styles.Favorite.Render(styles.FavoriteMark)
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, styles.Separator.Render(strings.Repeat("-", util.DisplayWidth(title)+2)))
	for _, msg := range conv.Messages {
		printMessage(w, r, msg)
	}
}

const listTitleWidth = 44

// printListing writes one numbered line per conversation and returns their
// IDs in display order.
func printListing(w io.Writer, convs []model.Conversation, now time.Time) []string {
	ids := make([]string, 0, len(convs))
	for i, conv := range convs {
		mark := " "
		if conv.IsFavorite {
			mark = styles.Favorite.Render(styles.FavoriteMark)
		}
		fmt.Fprintf(w, "%3d. %s %s  %s  %s\n",
			i+1,
			mark,
			util.FitWidth(util.SingleLine(conv.Title), listTitleWidth),
			styles.Muted.Render(util.FitWidth(history.RelativeDate(conv.Timestamp, now), 12)),
			styles.Muted.Render(shortID(conv.ID)),
		)
		ids = append(ids, conv.ID)
	}
	return ids
}

func shortID(id string) string {
	return util.TruncateRunesNoEllipsis(id, 8)
}

func printBanner(w io.Writer, suggestions []string, configured bool, configPath string) {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Beauty Advisor"))
	sb.WriteString("\n")
	sb.WriteString("Your personal consultant for skincare, makeup and hair care.")
	banner := styles.Banner.Render(sb.String())
	fmt.Fprintln(w, banner)

	if len(suggestions) > 0 {
		fmt.Fprintln(w, styles.Muted.Render("Try asking:"))
		printSuggestions(w, suggestions)
	}
	fmt.Fprintln(w, styles.Help.Render("Type /help for commands, /quit to leave."))
	if !configured {
		fmt.Fprintln(w, styles.Warning.Render(
			"The advisor endpoint is not configured. Set proxy.endpoint in "+configPath+" or ADVISOR_ENDPOINT."))
	}
	fmt.Fprintln(w)
}

func printSuggestions(w io.Writer, suggestions []string) {
	for i, s := range suggestions {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s)
	}
}
