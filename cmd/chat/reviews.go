package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/format"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/paging"
	"github.com/urfave/cli/v3"
)

// reviewFeed is the "load more" review list.
type reviewFeed struct {
	api      *apiClient
	topic    string
	pager    *paging.Pager
	expander *paging.Expander
	items    []models.Review
}

func newReviewFeed(api *apiClient, topic string) *reviewFeed {
	return &reviewFeed{
		api:      api,
		topic:    topic,
		pager:    paging.NewPager(paging.ReviewPageSize),
		expander: paging.NewExpander(),
	}
}

// loadMore appends the next page and reports how many rows it held.
func (f *reviewFeed) loadMore(ctx context.Context) (int, error) {
	if !f.pager.HasMore() {
		return 0, nil
	}
	q := url.Values{}
	q.Set("offset", strconv.Itoa(f.pager.Next()))
	q.Set("limit", strconv.Itoa(f.pager.PageSize))
	if f.topic != "" {
		q.Set("topic_id", f.topic)
	}

	var page dto.ListResponse[models.Review]
	if err := f.api.do(ctx, http.MethodGet, "/api/reviews?"+q.Encode(), nil, &page); err != nil {
		return 0, err
	}
	f.pager.Accept(len(page.Items))
	f.items = append(f.items, page.Items...)
	return len(page.Items), nil
}

// reload starts over from the first page with everything collapsed.
func (f *reviewFeed) reload(ctx context.Context) error {
	f.pager.Reset()
	f.expander.Reset()
	f.items = nil
	_, err := f.loadMore(ctx)
	return err
}

func (f *reviewFeed) toggle(n int) bool {
	if n < 1 || n > len(f.items) {
		return false
	}
	f.expander.Toggle(f.items[n-1].ID.String())
	return true
}

func (f *reviewFeed) render(w io.Writer) {
	now := time.Now()
	for i, r := range f.items {
		id := r.ID.String()
		var name *string
		if r.User != nil {
			name = r.User.Username
		}
		where := ""
		if r.Topic != nil {
			where = r.Topic.Name
		}
		if r.Subtopic != nil {
			where += " / " + r.Subtopic.Name
		}

		fmt.Fprintf(w, "#%d [%s] %s - %s, %s\n", i+1, r.Type, where, format.DisplayName(name), format.TimeAgo(r.CreatedAt, now))
		text := f.expander.Display(id, r.Content, format.ReviewCardLimit)
		if format.IsTruncated(r.Content, format.ReviewCardLimit) && !f.expander.Expanded(id) {
			text += fmt.Sprintf(" (/more %d)", i+1)
		}
		fmt.Fprintf(w, "    %s\n", text)
		if r.Recommendation != nil && *r.Recommendation != "" {
			fmt.Fprintf(w, "    Recommendation: %s\n", *r.Recommendation)
		}
	}
	if f.pager.HasMore() {
		fmt.Fprintln(w, "Enter: more, /more N: expand, /reload, /quit")
	} else {
		fmt.Fprintln(w, "End of reviews. /more N: expand, /reload, /quit")
	}
}

func runReviews(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := interruptible(ctx)
	defer stop()

	feed := newReviewFeed(newAPIClient(cmd.String("api"), cmd.String("token")), cmd.String("topic"))
	if _, err := feed.loadMore(ctx); err != nil {
		return err
	}
	feed.render(os.Stdout)

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				return nil
			}
			switch n, isMore := moreArg(line); {
			case isMore:
				if !feed.toggle(n) {
					fmt.Fprintf(os.Stderr, "no review #%d\n", n)
					continue
				}
			case line == "/reload":
				if err := feed.reload(ctx); err != nil {
					fmt.Fprintln(os.Stderr, "Failed to load reviews:", err)
					continue
				}
			case line == "":
				if !feed.pager.HasMore() {
					continue
				}
				if _, err := feed.loadMore(ctx); err != nil {
					fmt.Fprintln(os.Stderr, "Failed to load reviews:", err)
					continue
				}
			default:
				continue
			}
			feed.render(os.Stdout)
		}
	}
}
