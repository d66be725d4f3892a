package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/events"
	"github.com/noah-isme/checkout-engine/internal/narration"
	"github.com/noah-isme/checkout-engine/internal/obs"
	"github.com/noah-isme/checkout-engine/internal/order"
	"github.com/noah-isme/checkout-engine/internal/pricing"
)

// Inventory is notified of the items of an approved order.
type Inventory interface {
	Update(ctx context.Context, items []pricing.LineItem) error
}

// Invoicing issues the invoice of an approved order.
type Invoicing interface {
	Generate(ctx context.Context, o order.Order) error
}

// EventEmitter publishes checkout outcomes.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) (events.Event, error)
}

// Result describes a finished checkout attempt.
type Result struct {
	OrderID      uuid.UUID
	State        State
	Path         []State
	BaseCost     pricing.Money
	AdjustedCost pricing.Money
	ShippingCost pricing.Money
	FinalAmount  pricing.Money
	Adjustments  []pricing.Adjustment
	Approved     bool

	// InventoryUpdated and Invoiced report which settlement notifications succeeded.
	InventoryUpdated bool
	Invoiced         bool
}

// Service runs orders through pricing, shipping, authorization and settlement.
// It holds no per-order state and may be shared across orders.
type Service struct {
	Inventory Inventory
	Invoicing Invoicing
	Narrator  narration.Sink
	Events    EventEmitter
	Metrics   *obs.CheckoutMetrics
	Logger    *zerolog.Logger
	Tracer    trace.Tracer
}

// Checkout prices o and, when payment is approved, updates inventory and then
// generates the invoice. A rejected payment ends in StateAborted with a nil
// error. A collaborator failure after approval stops settlement and is
// returned wrapped; the result then reports StateSettled with the
// notifications that did complete, and nothing is rolled back.
func (s *Service) Checkout(ctx context.Context, o order.Order) (Result, error) {
	if s == nil || s.Inventory == nil || s.Invoicing == nil {
		return Result{}, common.NewConfigurationError("checkout service not configured")
	}
	if !o.Valid() {
		return Result{}, common.NewConfigurationError("order was not built with order.New")
	}
	ctx, span := s.tracer().Start(ctx, "CheckoutService.Checkout")
	defer span.End()

	sink := narration.OrDiscard(s.Narrator)
	logger := s.logger().With().Str("order_id", o.ID().String()).Logger()
	method := o.Payment().Method()
	span.SetAttributes(
		attribute.String("order.id", o.ID().String()),
		attribute.String("payment.method", method),
		attribute.String("shipping.method", o.Shipping().Name()),
	)

	res := Result{OrderID: o.ID(), State: StatePricing, Path: []State{StatePricing}}
	items := o.Items()

	res.BaseCost = pricing.BaseCost(items)
	sink.Record(ctx, narration.Line{
		Step:      narration.StepPricing,
		Operation: "base_cost",
		Amount:    res.BaseCost,
		Message:   "base cost: " + pricing.Display(res.BaseCost),
	})
	res.AdjustedCost, res.Adjustments = pricing.Chain(res.BaseCost, items, o.Modifiers())
	for _, adj := range res.Adjustments {
		sink.Record(ctx, narration.Line{
			Step:      narration.StepPricing,
			Operation: adj.Modifier,
			Amount:    adj.Delta,
			Message:   fmt.Sprintf("%s: %s", adj.Modifier, signed(adj.Delta)),
		})
	}

	res.advance(StateShipping)
	ship := o.Shipping()
	res.ShippingCost = ship.Calculate(res.AdjustedCost)
	sink.Record(ctx, narration.Line{
		Step:      narration.StepShipping,
		Operation: ship.Name(),
		Amount:    res.ShippingCost,
		Message:   fmt.Sprintf("%s: %s", ship.Name(), pricing.Display(res.ShippingCost)),
	})
	res.FinalAmount = res.AdjustedCost.Add(res.ShippingCost)
	sink.Record(ctx, narration.Line{
		Step:      narration.StepShipping,
		Operation: "final_amount",
		Amount:    res.FinalAmount,
		Message:   "amount due: " + pricing.Display(res.FinalAmount),
	})
	span.SetAttributes(attribute.Float64("checkout.final_amount", res.FinalAmount.InexactFloat64()))
	if s.Metrics != nil {
		s.Metrics.FinalAmount.WithLabelValues(method).Observe(res.FinalAmount.InexactFloat64())
	}

	res.advance(StateAuthorizing)
	res.Approved = o.Payment().Authorize(ctx, res.FinalAmount, sink).Approved
	if !res.Approved {
		res.advance(StateAborted)
		sink.Record(ctx, narration.Line{
			Step:      narration.StepSettlement,
			Operation: "abort",
			Amount:    res.FinalAmount,
			Message:   "checkout aborted: payment rejected",
		})
		s.finish(ctx, span, logger, res, method, nil)
		return res, nil
	}

	res.advance(StateSettled)
	if err := s.Inventory.Update(ctx, items); err != nil {
		err = fmt.Errorf("checkout: inventory update: %w", err)
		s.fulfillmentFailed(ctx, logger, res, "inventory", err)
		s.finish(ctx, span, logger, res, method, err)
		return res, err
	}
	res.InventoryUpdated = true
	sink.Record(ctx, narration.Line{
		Step:      narration.StepSettlement,
		Operation: "inventory",
		Amount:    res.FinalAmount,
		Message:   "order settled: inventory updated",
	})

	if err := s.Invoicing.Generate(ctx, o); err != nil {
		err = fmt.Errorf("checkout: invoice generation: %w", err)
		s.fulfillmentFailed(ctx, logger, res, "invoice", err)
		s.finish(ctx, span, logger, res, method, err)
		return res, err
	}
	res.Invoiced = true
	sink.Record(ctx, narration.Line{
		Step:      narration.StepSettlement,
		Operation: "invoice",
		Amount:    res.FinalAmount,
		Message:   "invoice issued",
	})
	s.finish(ctx, span, logger, res, method, nil)
	return res, nil
}

func (r *Result) advance(next State) {
	r.State = next
	r.Path = append(r.Path, next)
}

func (s *Service) fulfillmentFailed(ctx context.Context, logger zerolog.Logger, res Result, stage string, err error) {
	if s.Metrics != nil {
		s.Metrics.FulfillmentFailures.WithLabelValues(stage).Inc()
	}
	s.emit(ctx, logger, events.TopicCheckoutFulfillmentFailed, res, map[string]any{
		"stage": stage,
		"error": err.Error(),
	})
}

func (s *Service) finish(ctx context.Context, span trace.Span, logger zerolog.Logger, res Result, method string, err error) {
	span.SetAttributes(
		attribute.String("checkout.state", string(res.State)),
		attribute.Bool("payment.approved", res.Approved),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.Metrics != nil {
		s.Metrics.CheckoutTotal.WithLabelValues(string(res.State), method).Inc()
	}
	var evt *zerolog.Event
	if err != nil {
		evt = logger.Error().Err(err)
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			evt = evt.Str("error_code", appErr.Code)
		}
	} else {
		evt = logger.Info()
	}
	evt.Str("state", string(res.State)).
		Str("payment_method", method).
		Str("final_amount", pricing.Display(res.FinalAmount)).
		Bool("inventory_updated", res.InventoryUpdated).
		Bool("invoiced", res.Invoiced).
		Msg("checkout_finished")

	if err != nil {
		return
	}
	topic := events.TopicCheckoutSettled
	if res.State == StateAborted {
		topic = events.TopicCheckoutAborted
	}
	s.emit(ctx, logger, topic, res, nil)
}

func (s *Service) emit(ctx context.Context, logger zerolog.Logger, topic string, res Result, extra map[string]any) {
	if s.Events == nil {
		return
	}
	payload := map[string]any{
		"orderId":     res.OrderID.String(),
		"state":       string(res.State),
		"finalAmount": pricing.Display(res.FinalAmount),
		"approved":    res.Approved,
	}
	for k, v := range extra {
		payload[k] = v
	}
	if _, err := s.Events.Emit(ctx, topic, res.OrderID, payload); err != nil {
		logger.Warn().Err(err).Str("topic", topic).Msg("emit checkout event")
	}
}

func (s *Service) tracer() trace.Tracer {
	if s.Tracer != nil {
		return s.Tracer
	}
	return otel.Tracer("checkout.Service")
}

func (s *Service) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

func signed(delta pricing.Money) string {
	if delta.IsNegative() {
		return "-" + pricing.Display(delta.Abs())
	}
	return "+" + pricing.Display(delta)
}
