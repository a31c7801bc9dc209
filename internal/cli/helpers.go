// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jeranaias/beauty-advisor/internal/model"
)

var (
	// ErrNoSuchConversation is returned when a reference matches nothing.
	ErrNoSuchConversation = errors.New("no such conversation")

	// ErrAmbiguousReference is returned when an ID prefix matches several conversations.
	ErrAmbiguousReference = errors.New("ambiguous conversation reference")
)

// resolveRef turns a user reference into a conversation ID. A number picks
// from listing (1-based); anything else is a full ID or unique ID prefix
// among convs.
func resolveRef(ref string, listing []string, convs []model.Conversation) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrNoSuchConversation)
	}
	if n, err := strconv.Atoi(ref); err == nil && len(listing) > 0 {
		if n < 1 || n > len(listing) {
			return "", fmt.Errorf("%w: pick a number between 1 and %d", ErrNoSuchConversation, len(listing))
		}
		return listing[n-1], nil
	}

	var matches []string
	for _, c := range convs {
		if c.ID == ref {
			return c.ID, nil
		}
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNoSuchConversation, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %d conversations", ErrAmbiguousReference, ref, len(matches))
	}
}

// promptYesNo asks question on out and reads one answer line from in.
// Only "y" and "yes" confirm.
func promptYesNo(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
