package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/rl1809/order-console/internal/app"
	"github.com/rl1809/order-console/internal/config"
	"github.com/rl1809/order-console/internal/core/domain"
)

// console carries the process-wide state shared by every subcommand.
type console struct {
	in  *lineReader
	out *lockedWriter

	// loadConfig is replaced in tests.
	loadConfig func(files ...string) (config.Config, error)
	logger     *logrus.Logger
	app        *app.App
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{
		in:         newLineReader(in),
		out:        &lockedWriter{w: out},
		loadConfig: config.Load,
	}
}

func (c *console) cli() *cli.App {
	return &cli.App{
		Name:  "orderconsole",
		Usage: "compose orders and follow their status from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env", Value: ".env", Usage: "optional env file"},
			&cli.StringFlag{Name: "api-root", Usage: "REST root, overrides API_ROOT"},
			&cli.StringFlag{Name: "push-root", Usage: "WebSocket root, overrides PUSH_ROOT"},
			&cli.StringFlag{Name: "user", Usage: "username, overrides ORDER_USERNAME"},
			&cli.StringFlag{Name: "token", Usage: "access token, overrides ACCESS_TOKEN"},
			&cli.StringFlag{Name: "log-level", Usage: "overrides LOG_LEVEL"},
			&cli.StringFlag{Name: "log-format", Usage: "json or text, overrides LOG_FORMAT"},
		},
		Before:   c.setup,
		Commands: c.commands(),
	}
}

// setup runs before every subcommand: config, logger, then adapters.
func (c *console) setup(ctx *cli.Context) error {
	switch ctx.Args().First() {
	case "", "help", "h":
		return nil
	}

	cfg, err := c.loadConfig(ctx.String("env"))
	if err != nil {
		return err
	}
	override(&cfg.APIRoot, ctx.String("api-root"))
	override(&cfg.PushRoot, ctx.String("push-root"))
	override(&cfg.Username, ctx.String("user"))
	override(&cfg.AccessToken, ctx.String("token"))
	override(&cfg.LogLevel, ctx.String("log-level"))
	override(&cfg.LogFormat, ctx.String("log-format"))

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	c.logger = logger

	a, err := app.New(ctx.Context, cfg, logger, c.printNotice)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *console) close() {
	if c.app != nil {
		if err := c.app.Close(); err != nil && c.logger != nil {
			c.logger.WithError(err).Warn("close adapters")
		}
	}
}

func (c *console) printNotice(n domain.Notice) {
	tag := "ok"
	if n.Level == domain.NoticeError {
		tag = "error"
	}
	fmt.Fprintf(c.out, "[%s] %s\n", tag, n.Text)
}

// lineReader reads input lines on its own goroutine so a waiting prompt can
// still be interrupted through its context. Nothing is read until the first
// ReadLine.
type lineReader struct {
	r     io.Reader
	once  sync.Once
	lines chan string
	err   error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r, lines: make(chan string)}
}

func (l *lineReader) start() {
	go func() {
		br := bufio.NewReader(l.r)
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				l.lines <- line
			}
			if err != nil {
				l.err = err
				close(l.lines)
				return
			}
		}
	}()
}

// ReadLine returns the next line, or ctx's error if ctx ends first. After
// the input is exhausted it returns the read error, usually io.EOF.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	l.once.Do(l.start)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-l.lines:
		if !ok {
			return "", l.err
		}
		return line, nil
	}
}

// stdinConfirmer asks on the console input; anything but y or yes is no.
type stdinConfirmer struct {
	in  *lineReader
	out io.Writer
}

func (s stdinConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(s.out, "%s [y/N]: ", prompt)
	line, err := s.in.ReadLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

type autoConfirmer struct{}

func (autoConfirmer) Confirm(context.Context, string) (bool, error) { return true, nil }
