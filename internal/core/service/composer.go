package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/order-console/internal/core/domain"
	"github.com/rl1809/order-console/internal/port"
)

const (
	FieldProduct  = "product"
	FieldQuantity = "quantity"
)

// Composer holds the draft of one order. The draft always has at least one
// row.
type Composer struct {
	identity  domain.Identity
	api       port.OrderAPI
	refresher port.Refresher
	opts      options
	log       *logrus.Entry

	mu   sync.Mutex
	rows []domain.LineItem
}

// NewComposer returns a composer with a single empty row. refresher may be
// nil when no history view is attached.
func NewComposer(identity domain.Identity, api port.OrderAPI, refresher port.Refresher, opts ...Option) *Composer {
	o := buildOptions(opts)
	c := &Composer{
		identity:  identity,
		api:       api,
		refresher: refresher,
		opts:      o,
		log:       o.logger.WithFields(logrus.Fields{"component": "composer", "username": identity.Username}),
	}
	c.rows = []domain.LineItem{c.emptyRow()}
	return c
}

func (c *Composer) emptyRow() domain.LineItem {
	return domain.LineItem{
		LocalID:   c.opts.newID(),
		Selection: domain.Unselected{},
		Quantity:  1,
	}
}

func (c *Composer) Rows() []domain.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]domain.LineItem, len(c.rows))
	copy(rows, c.rows)
	return rows
}

// AddRow appends an empty row once every existing row has a product.
func (c *Composer) AddRow() (domain.LineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range c.rows {
		if !row.IsSelected() {
			c.opts.notifier.Error(msgIncompleteRow)
			return domain.LineItem{}, ErrIncompleteRow
		}
	}

	row := c.emptyRow()
	c.rows = append(c.rows, row)
	return row, nil
}

func (c *Composer) RemoveRow(localID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(localID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, localID)
	}
	if len(c.rows) == 1 {
		return ErrLastRow
	}

	c.rows = append(c.rows[:i], c.rows[i+1:]...)
	return nil
}

// UpdateRow applies a text edit. FieldProduct selects by display name, an
// empty value clears the selection; FieldQuantity takes a positive integer.
func (c *Composer) UpdateRow(localID, field, value string) error {
	switch field {
	case FieldProduct:
		name := strings.TrimSpace(value)
		if name == "" {
			return c.setSelection(localID, domain.Unselected{})
		}
		return c.setSelection(localID, domain.Selected{Name: name})
	case FieldQuantity:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			c.opts.notifier.Error(msgInvalidQuantity)
			return fmt.Errorf("%w: %q", ErrInvalidQuantity, value)
		}
		return c.SetQuantity(localID, n)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// SelectProduct selects a catalog product, keyed by its stable id.
func (c *Composer) SelectProduct(localID string, p domain.Product) error {
	return c.setSelection(localID, domain.Selected{ProductRef: p.ID, Name: p.Name})
}

func (c *Composer) SetQuantity(localID string, n int) error {
	if n <= 0 {
		c.opts.notifier.Error(msgInvalidQuantity)
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, n)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(localID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, localID)
	}
	c.rows[i].Quantity = n
	return nil
}

func (c *Composer) setSelection(localID string, sel domain.Selection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(localID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, localID)
	}
	c.rows[i].Selection = sel
	return nil
}

func (c *Composer) indexOf(localID string) int {
	for i, row := range c.rows {
		if row.LocalID == localID {
			return i
		}
	}
	return -1
}

// Submit consolidates the draft and sends it as one order. On failure the
// draft is left as it was so the same payload can be retried.
func (c *Composer) Submit(ctx context.Context) ([]domain.ConsolidatedItem, error) {
	items := Consolidate(c.Rows())
	if len(items) == 0 {
		c.opts.notifier.Error(msgEmptyOrder)
		return nil, ErrEmptyOrder
	}

	requestID := c.opts.newID()
	log := c.log.WithFields(logrus.Fields{"request_id": requestID, "items": len(items)})

	err := c.api.CreateOrder(ctx, requestID, items)
	c.record(ctx, requestID, items, err)
	if err != nil {
		c.opts.metrics.SubmitFailures.Inc()
		log.WithError(err).Error("create order failed")
		c.opts.notifier.Error("Failed to create order. Please try again.")
		return nil, fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	c.opts.metrics.Submissions.Inc()
	log.Info("order submitted")
	c.opts.notifier.Success("Order submitted successfully!")

	c.mu.Lock()
	c.rows = []domain.LineItem{c.emptyRow()}
	c.mu.Unlock()

	if c.refresher != nil {
		if err := c.refresher.Refresh(ctx); err != nil {
			log.WithError(err).Warn("history refresh after submit failed")
		}
	}

	return items, nil
}

func (c *Composer) record(ctx context.Context, requestID string, items []domain.ConsolidatedItem, submitErr error) {
	if c.opts.journal == nil {
		return
	}

	sub := domain.Submission{
		RequestID: requestID,
		Username:  c.identity.Username,
		Items:     items,
		Succeeded: submitErr == nil,
		CreatedAt: nowFunc(),
	}
	if submitErr != nil {
		sub.Error = submitErr.Error()
	}
	if err := c.opts.journal.RecordSubmission(ctx, sub); err != nil {
		c.log.WithError(err).Warn("journal submission failed")
	}
}
