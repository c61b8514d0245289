package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arooba/pricing-engine/internal/engine"
	"github.com/arooba/pricing-engine/internal/pricing"
	"github.com/arooba/pricing-engine/internal/shipping"
	"github.com/arooba/pricing-engine/pkg/enums"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/logger"
	"github.com/arooba/pricing-engine/pkg/validators"
)

const (
	opPrice     = "price"
	opShipping  = "shipping"
	opEscrow    = "escrow"
	opDeviation = "deviation"
	opCheckout  = "checkout"
	opOverrides = "overrides"
)

// auditRequest is one line of audit input. Exactly the payload named by
// Operation is read.
type auditRequest struct {
	ID        string                  `json:"id"`
	Operation string                  `json:"operation" validate:"required,oneof=price shipping escrow deviation checkout overrides"`
	Price     *pricing.PricingInput   `json:"price,omitempty"`
	Shipping  *shippingRequest        `json:"shipping,omitempty"`
	Escrow    *escrowRequest          `json:"escrow,omitempty"`
	Deviation *deviationRequest       `json:"deviation,omitempty"`
	Checkout  *engine.CheckoutRequest `json:"checkout,omitempty"`
	Overrides *overridesRequest       `json:"overrides,omitempty"`
}

type shippingRequest struct {
	Zone    enums.ShippingZone `json:"zone" validate:"required"`
	Parcels []shipping.Parcel  `json:"parcels" validate:"required,min=1,dive"`
}

type escrowRequest struct {
	OrderID     string    `json:"order_id,omitempty"`
	DeliveredAt time.Time `json:"delivered_at" validate:"required"`
}

// deviationRequest carries either the category average or the category's
// current prices to average.
type deviationRequest struct {
	Price           decimal.Decimal   `json:"price" validate:"dgte0"`
	CategoryAverage decimal.Decimal   `json:"category_average" validate:"dgte0"`
	Prices          []decimal.Decimal `json:"prices,omitempty" validate:"omitempty,dive,dgte0"`
}

// overridesRequest is a set of admin override fields, checked against the
// run's settings or stored with -override-file.
type overridesRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1"`
}

type auditResponse struct {
	RunID     string     `json:"run_id"`
	Seq       int        `json:"seq"`
	ID        string     `json:"id,omitempty"`
	Operation string     `json:"operation,omitempty"`
	Result    any        `json:"result,omitempty"`
	Error     *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    pkgerrors.Code `json:"code"`
	Message string         `json:"message"`
	Details any            `json:"details,omitempty"`
	Causes  []string       `json:"causes,omitempty"`
}

type auditSummary struct {
	Processed int
	Failed    int
}

type auditor struct {
	engine *engine.Service
	logg   *logger.Logger
	runID  string
}

// run replays every request in r against the engine and writes one response
// line per request to w. A malformed request is answered with an error line;
// only an unreadable stream stops the run.
func (a *auditor) run(ctx context.Context, r io.Reader, w io.Writer) (auditSummary, error) {
	var summary auditSummary
	dec := validators.NewDecoder(r)
	enc := json.NewEncoder(w)

	for seq := 1; ; seq++ {
		var req auditRequest
		err := dec.Next(&req)
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		summary.Processed++

		resp := auditResponse{RunID: a.runID, Seq: seq, ID: req.ID, Operation: req.Operation}
		if err == nil {
			resp.Result, err = a.dispatch(a.logg.WithRequestID(ctx, req.ID), req)
		}
		if err != nil {
			summary.Failed++
			resp.Result = nil
			resp.Error = toErrorBody(err)
			a.logFailure(ctx, seq, req, err)
		}
		if encErr := enc.Encode(resp); encErr != nil {
			return summary, fmt.Errorf("write response %d: %w", seq, encErr)
		}
		if dec.Broken() {
			return summary, err
		}
	}
}

func (a *auditor) dispatch(ctx context.Context, req auditRequest) (any, error) {
	switch req.Operation {
	case opPrice:
		if req.Price == nil {
			return nil, pkgerrors.Invalid("price", "is required")
		}
		return a.engine.PriceProduct(ctx, *req.Price)
	case opShipping:
		if req.Shipping == nil {
			return nil, pkgerrors.Invalid("shipping", "is required")
		}
		return a.engine.QuoteShipping(ctx, req.Shipping.Zone, req.Shipping.Parcels)
	case opEscrow:
		if req.Escrow == nil {
			return nil, pkgerrors.Invalid("escrow", "is required")
		}
		if req.Escrow.OrderID != "" {
			ctx = a.logg.WithOrderID(ctx, req.Escrow.OrderID)
		}
		return a.engine.EscrowStatus(ctx, req.Escrow.DeliveredAt)
	case opDeviation:
		if req.Deviation == nil {
			return nil, pkgerrors.Invalid("deviation", "is required")
		}
		if len(req.Deviation.Prices) > 0 {
			if !req.Deviation.CategoryAverage.IsZero() {
				return nil, pkgerrors.Invalid("deviation", "takes category_average or prices, not both")
			}
			return a.engine.ReviewPriceAgainstCategory(ctx, req.Deviation.Price, req.Deviation.Prices)
		}
		return a.engine.ReviewPrice(ctx, req.Deviation.Price, req.Deviation.CategoryAverage)
	case opCheckout:
		if req.Checkout == nil {
			return nil, pkgerrors.Invalid("checkout", "is required")
		}
		return a.engine.Checkout(ctx, *req.Checkout)
	case opOverrides:
		if req.Overrides == nil {
			return nil, pkgerrors.Invalid("overrides", "is required")
		}
		return a.engine.PreviewOverrides(ctx, req.Overrides.Fields)
	}
	return nil, pkgerrors.Invalid("operation", fmt.Sprintf("unknown operation %q", req.Operation))
}

func (a *auditor) logFailure(ctx context.Context, seq int, req auditRequest, err error) {
	dump := pkgerrors.Dump(err)
	a.logg.Debug(a.logg.WithFields(a.logg.WithRequestID(ctx, req.ID), map[string]any{
		"seq":         seq,
		"operation":   req.Operation,
		"error":       dump.TopMessage,
		"error_code":  dump.Code,
		"error_chain": dump.Chain,
	}), "audit request failed")
}

func toErrorBody(err error) *errorBody {
	typed := pkgerrors.As(err)
	if typed == nil {
		return &errorBody{Code: pkgerrors.CodeInternal, Message: err.Error()}
	}
	body := &errorBody{Code: typed.Code(), Message: typed.Message()}
	if pkgerrors.MetadataFor(typed.Code()).DetailsAllowed {
		body.Details = typed.Details()
		body.Causes = pkgerrors.Dump(err).Causes
	}
	return body
}
