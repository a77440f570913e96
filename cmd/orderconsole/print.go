package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rl1809/order-console/internal/core/domain"
)

func printOrders(out io.Writer, orders []domain.Order, withUser bool) {
	if len(orders) == 0 {
		fmt.Fprintln(out, "no orders")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if withUser {
		fmt.Fprintln(tw, "ID\tUSER\tITEM\tQTY\tSTATUS\tCREATED")
	} else {
		fmt.Fprintln(tw, "ID\tITEM\tQTY\tSTATUS\tCREATED")
	}
	for _, o := range orders {
		created := "-"
		if !o.CreatedAt.IsZero() {
			created = o.CreatedAt.Local().Format(time.DateTime)
		}
		if withUser {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", o.ID, o.Username, o.ItemName, o.Quantity, o.Status.Display(), created)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", o.ID, o.ItemName, o.Quantity, o.Status.Display(), created)
		}
	}
	tw.Flush()
}

func printBuckets(out io.Writer, b domain.Buckets, withUser bool) {
	for _, section := range []struct {
		title  string
		orders []domain.Order
	}{
		{"Pending", b.Pending},
		{"Processing", b.Processing},
		{"Completed", b.Completed},
		{"Other", b.Other},
	} {
		if section.title == "Other" && len(section.orders) == 0 {
			continue
		}
		fmt.Fprintf(out, "== %s (%d)\n", section.title, len(section.orders))
		if len(section.orders) > 0 {
			printOrders(out, section.orders, withUser)
		}
	}
}

func printRows(out io.Writer, rows []domain.LineItem) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPRODUCT\tQTY")
	for i, r := range rows {
		name := "-"
		if sel, ok := r.Selection.(domain.Selected); ok {
			name = sel.Name
			if sel.ProductRef != "" {
				name += " (" + sel.ProductRef + ")"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, name, r.Quantity)
	}
	tw.Flush()
}

func printSubmissions(out io.Writer, subs []domain.Submission) {
	if len(subs) == 0 {
		fmt.Fprintln(out, "no submissions")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tREQUEST\tRESULT\tITEMS")
	for _, s := range subs {
		result := "ok"
		if !s.Succeeded {
			result = "failed: " + s.Error
		}
		items := make([]string, 0, len(s.Items))
		for _, it := range s.Items {
			items = append(items, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.CreatedAt.Local().Format(time.DateTime), s.RequestID, result, strings.Join(items, ", "))
	}
	tw.Flush()
}

func printProducts(out io.Writer, products []domain.Product) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tCATEGORY\tSTOCK\tPRICE")
	for i, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", i+1, p.ID, p.Name, p.Category, p.Stock, p.Price.StringFixed(2))
	}
	tw.Flush()
}
