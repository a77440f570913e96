package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rl1809/order-console/internal/core/domain"
	"github.com/rl1809/order-console/internal/core/service"
	"github.com/rl1809/order-console/internal/port"
)

var errUsage = errors.New("usage")

func (c *console) commands() []*cli.Command {
	adminFlag := &cli.BoolFlag{Name: "admin", Usage: "use the admin view of all orders"}

	return []*cli.Command{
		{
			Name:      "order",
			Usage:     "submit one order",
			ArgsUsage: "NAME=QTY [PRODUCT_ID:NAME=QTY ...]",
			Action:    c.order,
		},
		{
			Name:   "history",
			Usage:  "print your orders",
			Action: c.history,
		},
		{
			Name:   "watch",
			Usage:  "follow order status until interrupted",
			Flags:  []cli.Flag{adminFlag},
			Action: c.watch,
		},
		{
			Name:      "accept",
			Usage:     "accept a pending order (admin)",
			ArgsUsage: "ORDER_ID",
			Action:    c.accept,
		},
		{
			Name:      "cancel",
			Usage:     "cancel an order (admin)",
			ArgsUsage: "ORDER_ID",
			Flags:     []cli.Flag{&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"}},
			Action:    c.cancel,
		},
		{
			Name:      "search",
			Usage:     "search the product catalog",
			ArgsUsage: "TEXT",
			Action:    c.search,
		},
		{
			Name:   "journal",
			Usage:  "list your recent submissions from the MySQL journal",
			Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Value: 20}},
			Action: c.journal,
		},
		{
			Name:   "shell",
			Usage:  "interactive session",
			Flags:  []cli.Flag{adminFlag},
			Action: c.shell,
		},
	}
}

func (c *console) order(ctx *cli.Context) error {
	items, err := parseItems(ctx.Args().Slice())
	if err != nil {
		return err
	}

	syncer := c.app.Synchronizer(domain.ScopeUser, nil)
	composer := c.app.Composer(syncer)
	if err := fillComposer(composer, items); err != nil {
		return err
	}

	sent, err := composer.Submit(ctx.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "submitted %d item(s)\n", len(sent))
	printOrders(c.out, syncer.Orders(), false)
	return nil
}

func (c *console) history(ctx *cli.Context) error {
	syncer := c.app.Synchronizer(domain.ScopeUser, nil)
	if err := syncer.Refresh(ctx.Context); err != nil {
		return err
	}
	printOrders(c.out, syncer.Orders(), false)
	return nil
}

func (c *console) watch(ctx *cli.Context) error {
	scope := scopeOf(ctx.Bool("admin"))
	syncer := c.app.Synchronizer(scope, nil)

	status, err := c.app.NewStatusServer(syncer)
	if err != nil {
		return fmt.Errorf("status server: %w", err)
	}
	if status != nil {
		done := make(chan struct{})
		go func() {
			status.Serve(ctx.Context)
			close(done)
		}()
		defer func() { <-done }()
	}

	fmt.Fprintf(c.out, "watching %s orders, Ctrl-C to stop\n", scope)
	if err := syncer.Run(ctx.Context); err != nil {
		return err
	}
	printBuckets(c.out, syncer.Buckets(), scope == domain.ScopeAdmin)
	return nil
}

func (c *console) accept(ctx *cli.Context) error {
	id, err := parseOrderID(ctx.Args().First())
	if err != nil {
		return err
	}
	return c.app.Synchronizer(domain.ScopeAdmin, nil).AcceptOrder(ctx.Context, id)
}

func (c *console) cancel(ctx *cli.Context) error {
	id, err := parseOrderID(ctx.Args().First())
	if err != nil {
		return err
	}
	var confirmer port.Confirmer = stdinConfirmer{in: c.in, out: c.out}
	if ctx.Bool("yes") {
		confirmer = autoConfirmer{}
	}
	err = c.app.Synchronizer(domain.ScopeAdmin, confirmer).CancelOrder(ctx.Context, id)
	if errors.Is(err, service.ErrNotConfirmed) {
		fmt.Fprintln(c.out, "not cancelled")
		return nil
	}
	return err
}

func (c *console) search(ctx *cli.Context) error {
	text := strings.Join(ctx.Args().Slice(), " ")
	search := c.app.Search()
	defer search.Close()

	products := search.Search(ctx.Context, text)
	if len(products) == 0 {
		fmt.Fprintln(c.out, "no products found")
		return nil
	}
	printProducts(c.out, products)
	return nil
}

var errNoJournal = errors.New("journal not connected, set MYSQL_DSN")

func (c *console) journal(ctx *cli.Context) error {
	j := c.app.Journal()
	if j == nil {
		return errNoJournal
	}
	subs, err := j.Submissions(ctx.Context, c.app.Identity.Username, ctx.Int("limit"))
	if err != nil {
		return err
	}
	printSubmissions(c.out, subs)
	return nil
}

func scopeOf(admin bool) domain.Scope {
	if admin {
		return domain.ScopeAdmin
	}
	return domain.ScopeUser
}

type itemArg struct {
	ref      string
	name     string
	quantity int
}

// parseItems reads NAME=QTY or PRODUCT_ID:NAME=QTY arguments.
func parseItems(args []string) ([]itemArg, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: order NAME=QTY [PRODUCT_ID:NAME=QTY ...]", errUsage)
	}
	items := make([]itemArg, 0, len(args))
	for _, arg := range args {
		eq := strings.LastIndex(arg, "=")
		if eq <= 0 {
			return nil, fmt.Errorf("%w: %q is not NAME=QTY", errUsage, arg)
		}
		qty, err := strconv.Atoi(arg[eq+1:])
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("%w: %q needs a positive quantity", errUsage, arg)
		}
		it := itemArg{name: arg[:eq], quantity: qty}
		if ref, name, ok := strings.Cut(it.name, ":"); ok {
			it.ref, it.name = ref, name
		}
		if strings.TrimSpace(it.name) == "" {
			return nil, fmt.Errorf("%w: %q has no product name", errUsage, arg)
		}
		items = append(items, it)
	}
	return items, nil
}

func fillComposer(composer *service.Composer, items []itemArg) error {
	for i, it := range items {
		var row domain.LineItem
		if i == 0 {
			row = composer.Rows()[0]
		} else {
			added, err := composer.AddRow()
			if err != nil {
				return err
			}
			row = added
		}

		var err error
		if it.ref != "" {
			err = composer.SelectProduct(row.LocalID, domain.Product{ID: it.ref, Name: it.name})
		} else {
			err = composer.UpdateRow(row.LocalID, service.FieldProduct, it.name)
		}
		if err != nil {
			return err
		}
		if err := composer.SetQuantity(row.LocalID, it.quantity); err != nil {
			return err
		}
	}
	return nil
}

func parseOrderID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not an order id", errUsage, s)
	}
	return id, nil
}
