package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alnah/go-chatfmt/internal/clipboard"
	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/hints"
	"github.com/alnah/go-chatfmt/internal/history"
)

// runAskCmd sends a prompt to the model and prints the formatted answer.
func runAskCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseAskFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	prompt, err := readPrompt(positional, env)
	if err != nil {
		return err
	}

	var timeout time.Duration
	if flags.timeout != "" {
		timeout, err = time.ParseDuration(flags.timeout)
		if err != nil || timeout <= 0 {
			return fmt.Errorf("%w: invalid timeout %q", ErrUsage, flags.timeout)
		}
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return err
	}
	f, err := s.newFormatter()
	if err != nil {
		return err
	}
	model, err := s.newCompleter(env, timeout)
	if err != nil {
		return err
	}

	var store *history.Store
	if !flags.noSave || flags.chat != "" {
		if store, err = s.openHistory(); err != nil {
			return err
		}
	}

	var past []completion.Exchange
	if flags.chat != "" {
		chat, err := store.Get(flags.chat)
		if err != nil {
			if errors.Is(err, history.ErrChatNotFound) {
				return fmt.Errorf("%w%s", err, hints.ForChatNotFound())
			}
			return err
		}
		past = chat.Exchanges()
	}

	system := strings.TrimSpace(s.cfg.Model.SystemPrompt + " " + flags.system)
	msgs := completion.BuildMessages(system, past, s.cfg.Model.ContextTurns, prompt)

	answer, err := model.SendCompletion(ctx, msgs)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w%s", err, hints.ForTimeout())
		}
		return fmt.Errorf("%w%s", err, hints.ForModelUnreachable(s.cfg.Model.BaseURL))
	}

	chatID := flags.chat
	if chatID == "" {
		chatID = history.NewChatID()
	}
	if !flags.noSave {
		if _, err := store.Append(chatID, prompt, answer); err != nil {
			return err
		}
	}

	res := f.Format(answer)
	if flags.plain {
		fmt.Fprintln(env.Stdout, answer)
	} else {
		fmt.Fprintln(env.Stdout, res.HTML)
	}

	if flags.copy {
		if err := copyMessage(env, s, res.HTML); err != nil {
			return err
		}
	}

	if !flags.common.quiet && !flags.noSave {
		fmt.Fprintf(env.Stderr, "chat: %s\n", chatID)
	}
	return nil
}

// readPrompt joins positional args, or reads stdin for "-" or no args.
func readPrompt(positional []string, env *Environment) (string, error) {
	prompt := strings.Join(positional, " ")
	if (prompt == "" || prompt == stdinArg) && env.Stdin != nil {
		data, err := io.ReadAll(io.LimitReader(env.Stdin, maxInputSize))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrReadInput, err)
		}
		prompt = string(data)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt is required", ErrUsage)
	}
	return prompt, nil
}

// copyMessage copies a formatted message as text.
func copyMessage(env *Environment, s *settings, fragment string) error {
	w := &clipboardWriter{write: env.Clipboard}
	(&clipboard.Copier{Writer: w.Write, Logger: s.logger}).CopyMessage(fragment)
	return w.result()
}
