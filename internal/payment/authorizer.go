package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/checkout-engine/internal/narration"
	"github.com/noah-isme/checkout-engine/internal/pricing"
)

// Result is the binary outcome of an authorization attempt.
type Result struct {
	Approved bool
}

// Authorizer decides whether a final amount can be charged. Narration is
// written to the provided sink and has no influence on the result.
type Authorizer interface {
	Method() string
	Authorize(ctx context.Context, amount pricing.Money, sink narration.Sink) Result
}

// Instant approves every amount and narrates a generated reference token.
type Instant struct {
	Channel string
	// SettleNote, when set, is appended to the approval narration (e.g. a settlement delay).
	SettleNote string
	// NewReference overrides token generation.
	NewReference func() string
}

func (p Instant) Method() string { return normaliseLabel(p.Channel) }

func (p Instant) Authorize(ctx context.Context, amount pricing.Money, sink narration.Sink) Result {
	sink = narration.OrDiscard(sink)
	method := p.Method()
	sink.Record(ctx, narration.Line{
		Step:      narration.StepPayment,
		Operation: method,
		Amount:    amount,
		Message:   fmt.Sprintf("processing %s via %s", pricing.Display(amount), method),
	})
	ref := p.reference()
	msg := fmt.Sprintf("%s payment approved (reference %s)", method, ref)
	if note := strings.TrimSpace(p.SettleNote); note != "" {
		msg += ", " + note
	}
	sink.Record(ctx, narration.Line{
		Step:      narration.StepPayment,
		Operation: method,
		Amount:    amount,
		Message:   msg,
	})
	return Result{Approved: true}
}

func (p Instant) reference() string {
	if p.NewReference != nil {
		return p.NewReference()
	}
	return uuid.NewString()
}

// Limited approves amounts strictly below Limit.
type Limited struct {
	Channel string
	Limit   pricing.Money
}

func (p Limited) Method() string { return normaliseLabel(p.Channel) }

func (p Limited) Authorize(ctx context.Context, amount pricing.Money, sink narration.Sink) Result {
	sink = narration.OrDiscard(sink)
	method := p.Method()
	sink.Record(ctx, narration.Line{
		Step:      narration.StepPayment,
		Operation: method,
		Amount:    amount,
		Message:   fmt.Sprintf("processing %s via %s", pricing.Display(amount), method),
	})
	approved := amount.LessThan(p.Limit)
	msg := fmt.Sprintf("%s payment approved", method)
	if !approved {
		msg = fmt.Sprintf("%s payment rejected (limit %s exceeded)", method, pricing.Display(p.Limit))
	}
	sink.Record(ctx, narration.Line{
		Step:      narration.StepPayment,
		Operation: method,
		Amount:    amount,
		Message:   msg,
	})
	return Result{Approved: approved}
}

func normaliseLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
