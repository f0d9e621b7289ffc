package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/k3a/html2text"

	"github.com/alnah/go-chatfmt"
	"github.com/alnah/go-chatfmt/internal/dateutil"
	"github.com/alnah/go-chatfmt/internal/hints"
	"github.com/alnah/go-chatfmt/internal/history"
)

// runHistoryCmd lists, shows or deletes recorded chats.
func runHistoryCmd(args []string, env *Environment) error {
	flags, positional, err := parseHistoryFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	action := "list"
	if len(positional) > 0 {
		action = positional[0]
	}
	var id string
	switch action {
	case "list":
	case "show", "delete":
		if len(positional) != 2 {
			return fmt.Errorf("%w: history %s requires a chat id", ErrUsage, action)
		}
		id = positional[1]
	default:
		return fmt.Errorf("%w: unknown history action %q", ErrUsage, action)
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return err
	}
	store, err := s.openHistory()
	if err != nil {
		return err
	}

	switch action {
	case "show":
		err = showChat(store, id, flags.raw, s, env)
	case "delete":
		err = store.Delete(id)
		if err == nil && !flags.common.quiet {
			fmt.Fprintf(env.Stdout, "Deleted %s\n", id)
		}
	default:
		err = listChats(store, s, env)
	}
	if errors.Is(err, history.ErrChatNotFound) {
		return fmt.Errorf("%w%s", err, hints.ForChatNotFound())
	}
	return err
}

func listChats(store *history.Store, s *settings, env *Environment) error {
	chats, err := store.Load()
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Fprintln(env.Stdout, "No chats yet")
		return nil
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPDATED\tMESSAGES\tTITLE")
	for _, c := range chats {
		updated, err := dateutil.Format(c.UpdatedAt, s.cfg.History.DateFormat)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ID, updated, len(c.Messages), c.Title)
	}
	return tw.Flush()
}

func showChat(store *history.Store, id string, raw bool, s *settings, env *Environment) error {
	chat, err := store.Get(id)
	if err != nil {
		return err
	}

	var f *chatfmt.Formatter
	if !raw {
		if f, err = s.newFormatter(); err != nil {
			return err
		}
	}

	fmt.Fprintf(env.Stdout, "# %s\n", chat.Title)
	for _, m := range chat.Messages {
		at, err := dateutil.Format(m.At, s.cfg.History.DateFormat)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "\n[%s] > %s\n\n", at, m.User)

		answer := m.AI
		if !raw {
			answer = html2text.HTML2TextWithOptions(f.FormatResponse(m.AI), html2text.WithUnixLineBreaks())
		}
		fmt.Fprintln(env.Stdout, strings.TrimSpace(answer))
	}
	return nil
}
