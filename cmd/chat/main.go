// Command chat follows community threads and browses reviews in the
// terminal.
package main

import (
	"bufio"
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/unilak/community/internal/logging"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "chat",
		Usage: "follow UNILAK community threads and reviews",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "base URL of the community API",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("UNILAK_API"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "access token; required to read threads",
				Sources: cli.EnvVars("UNILAK_TOKEN"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			slog.SetDefault(slog.New(logging.NewJSONHandler(os.Stderr, cmd.String("log-level"))))
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "thread",
				Usage: "chat in a request or announcement thread",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "request",
						Usage: "id of an announcement request to discuss with moderators",
					},
					&cli.StringFlag{
						Name:  "announcement",
						Usage: "id of a published announcement to reply to; without --token replies are sent anonymously and the thread is not shown",
					},
				},
				Action: runThread,
			},
			{
				Name:  "reviews",
				Usage: "page through the review feed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "topic",
						Usage: "only show reviews of this topic id",
					},
				},
				Action: runReviews,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("chat: %v", err)
	}
}

func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- strings.TrimSpace(scanner.Text())
	}
}

// moreArg parses "/more N" into N.
func moreArg(line string) (int, bool) {
	rest, ok := strings.CutPrefix(line, "/more")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}
