package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/rl1809/order-console/internal/core/domain"
	"github.com/rl1809/order-console/internal/core/service"
)

const shellHelp = `commands:
  rows                 show the draft
  add                  add an empty row
  product N NAME       set the product of row N
  find TEXT            search products (results arrive after a short pause)
  pick N RESULT#       put search result RESULT# into row N
  qty N Q              set the quantity of row N
  rm N                 remove row N
  submit               send the draft as one order
  history              list orders
  buckets              list orders grouped by status
  accept ID            accept an order (admin)
  cancel ID            cancel an order (admin)
  help                 this text
  quit                 leave`

// shellSession is one interactive session; the synchronizer runs in the
// background for its whole lifetime.
type shellSession struct {
	c        *console
	scope    domain.Scope
	syncer   *service.Synchronizer
	composer *service.Composer
	search   *service.ProductSearch

	mu      sync.Mutex
	results []domain.Product
}

func (c *console) shell(ctx *cli.Context) error {
	scope := scopeOf(ctx.Bool("admin"))
	syncer := c.app.Synchronizer(scope, stdinConfirmer{in: c.in, out: c.out})
	s := &shellSession{
		c:        c,
		scope:    scope,
		syncer:   syncer,
		composer: c.app.Composer(syncer),
		search:   c.app.Search(),
	}
	defer s.search.Close()

	runCtx, cancel := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := syncer.Run(runCtx); err != nil {
			c.logger.WithError(err).Error("synchronizer stopped")
		}
	}()
	defer func() {
		cancel()
		<-done
	}()

	fmt.Fprintf(c.out, "order console (%s), type help for commands\n", scope)
	return s.loop(runCtx)
}

func (s *shellSession) loop(ctx context.Context) error {
	for {
		fmt.Fprint(s.c.out, "> ")
		line, err := s.c.in.ReadLine(ctx)
		if err != nil {
			fmt.Fprintln(s.c.out)
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if line = strings.TrimSpace(line); line != "" {
			if quit := s.exec(ctx, line); quit {
				return nil
			}
		}
	}
}

// exec runs one command line and reports whether the session should end.
// Command errors are printed, never returned.
func (s *shellSession) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	out := s.c.out

	var err error
	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(out, shellHelp)
	case "rows":
		printRows(out, s.composer.Rows())
	case "add":
		if _, err = s.composer.AddRow(); err == nil {
			printRows(out, s.composer.Rows())
		}
	case "product":
		err = s.withRow(args, 2, func(row domain.LineItem) error {
			return s.composer.UpdateRow(row.LocalID, service.FieldProduct, strings.Join(args[1:], " "))
		})
	case "qty":
		err = s.withRow(args, 2, func(row domain.LineItem) error {
			return s.composer.UpdateRow(row.LocalID, service.FieldQuantity, args[1])
		})
	case "rm":
		err = s.withRow(args, 1, func(row domain.LineItem) error {
			return s.composer.RemoveRow(row.LocalID)
		})
	case "find":
		s.find(ctx, strings.Join(args, " "))
	case "pick":
		err = s.withRow(args, 2, func(row domain.LineItem) error {
			p, err := s.result(args[1])
			if err != nil {
				return err
			}
			return s.composer.SelectProduct(row.LocalID, p)
		})
	case "submit":
		_, err = s.composer.Submit(ctx)
	case "history":
		printOrders(out, s.syncer.Orders(), s.scope == domain.ScopeAdmin)
	case "buckets":
		printBuckets(out, s.syncer.Buckets(), s.scope == domain.ScopeAdmin)
	case "accept", "cancel":
		var id int64
		if id, err = parseOrderID(firstArg(args)); err != nil {
			break
		}
		if cmd == "accept" {
			err = s.syncer.AcceptOrder(ctx, id)
		} else {
			err = s.syncer.CancelOrder(ctx, id)
		}
	default:
		err = fmt.Errorf("unknown command %q, type help", cmd)
	}

	if err != nil && !noticed(err) {
		fmt.Fprintln(out, "error:", err)
	}
	return false
}

// withRow resolves the 1-based row number in args[0] and runs fn on it.
func (s *shellSession) withRow(args []string, want int, fn func(domain.LineItem) error) error {
	if len(args) < want {
		return fmt.Errorf("%w: expected %d argument(s)", errUsage, want)
	}
	rows := s.composer.Rows()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(rows) {
		return fmt.Errorf("%w: no row %s", errUsage, args[0])
	}
	if err := fn(rows[n-1]); err != nil {
		return err
	}
	printRows(s.c.out, s.composer.Rows())
	return nil
}

func (s *shellSession) find(ctx context.Context, text string) {
	s.search.Query(ctx, text, func(products []domain.Product) {
		s.mu.Lock()
		s.results = products
		s.mu.Unlock()

		if len(products) == 0 {
			fmt.Fprintf(s.c.out, "\nno products match %q\n", text)
			return
		}
		fmt.Fprintf(s.c.out, "\nresults for %q:\n", text)
		printProducts(s.c.out, products)
	})
}

func (s *shellSession) result(arg string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.results) {
		return domain.Product{}, fmt.Errorf("%w: no search result %s", errUsage, arg)
	}
	return s.results[n-1], nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// noticed reports errors the services already surfaced as a notice.
func noticed(err error) bool {
	return errors.Is(err, service.ErrEmptyOrder) ||
		errors.Is(err, service.ErrIncompleteRow) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrSubmission) ||
		errors.Is(err, service.ErrAdminAction)
}
