package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRender is returned when the invoice document could not be built.
	ErrRender = errors.New("fulfillment: render invoice")
	// ErrSend is returned when the confirmation mail was not delivered.
	ErrSend = errors.New("fulfillment: send mail")
	// ErrTimeout is returned when the pipeline did not finish in time.
	ErrTimeout = errors.New("fulfillment: timed out")
)

// Pipeline renders the invoice for a reservation and mails it, bounded
// by Timeout.
type Pipeline struct {
	Renderer Renderer
	Mailer   Mailer
	Timeout  time.Duration
	// Subject is prefixed to the invoice number in the mail subject.
	Subject string
}

// NewPipeline returns a Pipeline with the given collaborators.
func NewPipeline(r Renderer, m Mailer, timeout time.Duration) *Pipeline {
	return &Pipeline{Renderer: r, Mailer: m, Timeout: timeout, Subject: "Reservation confirmation"}
}

// Fulfill runs render then send.  Errors wrap ErrRender, ErrSend or
// ErrTimeout.
func (p *Pipeline) Fulfill(ctx context.Context, inv Invoice) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	done := make(chan error, 1)
	go func() { done <- p.run(ctx, inv) }()
	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, p.Timeout)
		}
		return ctx.Err()
	}
}

func (p *Pipeline) run(ctx context.Context, inv Invoice) error {
	doc, err := p.Renderer.RenderInvoice(ctx, inv)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	body, err := RenderBody(inv)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	msg := Message{
		To:      inv.Client,
		Subject: p.Subject + " " + inv.Number,
		Body:    body,
		Attachments: []Attachment{{
			Filename:    "invoice-" + inv.Number + ".pdf",
			ContentType: "application/pdf",
			Encoding:    "base64",
			Data:        doc,
		}},
	}
	if err := p.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}
