package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/unilak/community/internal/format"
	"github.com/unilak/community/internal/paging"
	"github.com/unilak/community/internal/thread"
	"github.com/urfave/cli/v3"
)

var errTokenRequired = errors.New("--token is required to chat about a request")

func runThread(ctx context.Context, cmd *cli.Command) error {
	requestID, announcementID := cmd.String("request"), cmd.String("announcement")
	if (requestID == "") == (announcementID == "") {
		return errors.New("exactly one of --request or --announcement is required")
	}
	id := requestID + announcementID
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid thread id %q", id)
	}

	ctx, stop := interruptible(ctx)
	defer stop()

	token := cmd.String("token")
	api := newAPIClient(cmd.String("api"), token)

	var (
		backend  *httpBackend
		greeting *thread.Message
		column   string
	)
	if requestID != "" {
		if token == "" {
			return errTokenRequired
		}
		backend, column = requestBackend(api, requestID), "request_id"
	} else {
		backend, column = announcementBackend(api, announcementID), "announcement_id"
		g := thread.Greeting(announcementID, time.Now())
		greeting = &g
	}

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	if token == "" {
		return sendOnly(ctx, backend, lines, os.Stdout)
	}

	me, err := api.account(ctx)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	viewer := me.ID.String()
	author := &thread.Author{Username: me.Username, AvatarURL: me.AvatarURL, Role: me.Role}

	session := thread.NewSession(backend, viewer, author, greeting)
	msgs, err := session.Open(ctx)
	if err != nil {
		return err
	}
	view := newThreadView(viewer)
	view.render(os.Stdout, msgs)

	endpoint, err := realtimeURL(cmd.String("api"), column, id, token)
	if err != nil {
		return err
	}
	changed := make(chan struct{}, 1)
	go follow(ctx, endpoint, changed)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			msgs, err := session.Refresh(ctx)
			if err != nil {
				slog.Warn("refresh failed", "error", err)
				continue
			}
			view.render(os.Stdout, msgs)
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				return nil
			}
			if n, ok := moreArg(line); ok {
				if !view.toggle(n) {
					fmt.Fprintf(os.Stderr, "no message #%d\n", n)
					continue
				}
				view.render(os.Stdout, view.shown)
				continue
			}
			msgs, err := session.Send(ctx, line)
			if errors.Is(err, thread.ErrEmptyMessage) {
				continue
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, thread.SendFailedText)
			}
			view.render(os.Stdout, msgs)
		}
	}
}

// sendOnly posts each line as an anonymous reply. Anonymous visitors may
// reply to an announcement but not read its thread.
func sendOnly(ctx context.Context, backend *httpBackend, lines <-chan string, w io.Writer) error {
	fmt.Fprintln(w, "Not signed in: replies are sent anonymously and the thread is not shown.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				return nil
			}
			if line == "" {
				continue
			}
			if err := backend.Send(ctx, line); err != nil {
				slog.Warn("anonymous reply failed", "error", err)
				fmt.Fprintln(w, thread.SendFailedText)
				continue
			}
			fmt.Fprintln(w, "Reply sent.")
		}
	}
}

// threadView renders a thread with long messages collapsed until toggled.
type threadView struct {
	viewer   string
	expander *paging.Expander
	shown    []thread.Message
}

func newThreadView(viewer string) *threadView {
	return &threadView{viewer: viewer, expander: paging.NewExpander()}
}

// toggle expands or collapses the n-th message of the last render.
func (v *threadView) toggle(n int) bool {
	if n < 1 || n > len(v.shown) {
		return false
	}
	v.expander.Toggle(v.shown[n-1].ID)
	return true
}

func (v *threadView) render(w io.Writer, msgs []thread.Message) {
	v.shown = msgs
	now := time.Now()
	fmt.Fprintln(w, "----------------------------------------")
	for i, m := range msgs {
		var name *string
		if m.Author != nil {
			name = &m.Author.Username
		}
		who := format.DisplayName(name)
		switch {
		case m.System:
			who = "UNILAK"
		case v.viewer != "" && m.UserID == v.viewer:
			who = "you"
		}

		status := format.TimeAgo(m.CreatedAt, now)
		if m.Pending {
			status = "sending..."
		}

		text := v.expander.Display(m.ID, m.Content, format.CompactCardLimit)
		if format.IsTruncated(m.Content, format.CompactCardLimit) && !v.expander.Expanded(m.ID) {
			text += fmt.Sprintf(" (/more %d)", i+1)
		}
		fmt.Fprintf(w, "#%d [%s] %s %s: %s\n", i+1, status, badge(m.Author, who), who, text)
	}
}

// badge is the avatar shown next to a name: the emoji when one is set,
// otherwise the name's initial.
func badge(a *thread.Author, name string) string {
	if a != nil && format.Avatar(a.AvatarURL) == format.AvatarEmoji {
		return a.AvatarURL
	}
	if a != nil {
		name = a.Username
	}
	return "[" + format.Initial(name) + "]"
}
