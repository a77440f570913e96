package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rl1809/order-console/internal/app"
	"github.com/rl1809/order-console/internal/config"
	"github.com/rl1809/order-console/internal/core/domain"
	"github.com/rl1809/order-console/internal/core/service"
)

// stress_test fires concurrent single-item orders at the backend, each from
// its own composer, and checks that every accepted order shows up in the
// user's history.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &cli.App{
		Name:  "stress_test",
		Usage: "submit many orders at once and verify the history",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env", Value: ".env"},
			&cli.IntFlag{Name: "requests", Value: 50},
			&cli.StringFlag{Name: "item", Value: "stress-item"},
			&cli.IntFlag{Name: "quantity", Value: 1},
		},
		Action: run,
	}
	if err := cmd.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	ctx := c.Context
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return err
	}
	cfg.LogLevel = "error"
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	syncer := a.Synchronizer(domain.ScopeUser, nil)
	if err := syncer.Refresh(ctx); err != nil {
		return fmt.Errorf("initial history: %w", err)
	}
	before := len(syncer.Orders())

	total := c.Int("requests")
	item := c.String("item")
	qty := c.Int("quantity")

	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := submitOne(ctx, a.Composer(nil), item, qty); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	if err := syncer.Refresh(ctx); err != nil {
		return fmt.Errorf("final history: %w", err)
	}
	added := len(syncer.Orders()) - before
	success := int(successCount.Load())

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", total)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("New Orders:       %d\n", added)
	fmt.Println("==========================================")

	if added == success {
		fmt.Println("PASS: every accepted submission is in the history")
	} else {
		fmt.Printf("FAIL: expected %d new orders, got %d\n", success, added)
	}
	return nil
}

func submitOne(ctx context.Context, composer *service.Composer, item string, qty int) error {
	row := composer.Rows()[0]
	if err := composer.UpdateRow(row.LocalID, service.FieldProduct, item); err != nil {
		return err
	}
	if err := composer.SetQuantity(row.LocalID, qty); err != nil {
		return err
	}
	_, err := composer.Submit(ctx)
	return err
}
