// Package safety implements the fat-finger gate: a pure, last-line-of-defense
// validator every candidate order must pass before reaching an execution
// handler. The risk engine is constructed with a Gate and is the only
// component holding the execution handler, so no code path can submit an
// order that has not been checked here.
package safety

import (
	"fmt"
	"math"
	"strings"

	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
)

// ViolationCode identifies a single violated safety rule.
type ViolationCode string

const (
	ViolationSizeExceeded     ViolationCode = "size_exceeded"
	ViolationNotionalExceeded ViolationCode = "notional_exceeded"
	ViolationPriceDeviation   ViolationCode = "price_deviation"
	ViolationInvalidQuantity  ViolationCode = "invalid_quantity"
)

// Violation is one violated rule with a human-readable explanation.
type Violation struct {
	Code    ViolationCode
	Message string
}

// ViolationError aggregates every rule an order violated. All rules are
// evaluated rather than short-circuited so callers can see the full picture.
type ViolationError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *ViolationError) Error() string {
	messages := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		messages = append(messages, fmt.Sprintf("%s: %s", v.Code, v.Message))
	}

	return strings.Join(messages, "; ")
}

// Has reports whether the error contains the given violation code.
func (e *ViolationError) Has(code ViolationCode) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}

	return false
}

// Gate validates orders against process-wide safety limits. It holds no
// mutable state and is safe to call concurrently.
type Gate struct {
	limits types.SafetyLimits
}

// NewGate creates a gate, failing fast on malformed limits.
func NewGate(limits types.SafetyLimits) (*Gate, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	return &Gate{limits: limits}, nil
}

// Limits returns a copy of the configured limits.
func (g *Gate) Limits() types.SafetyLimits {
	return g.limits
}

// Validate checks the order against every safety rule. On rejection it
// returns a coded error whose cause is a *ViolationError listing all
// violated rules. The order is never mutated.
func (g *Gate) Validate(order types.OrderRequest) error {
	var violations []Violation

	if order.Quantity <= 0 {
		violations = append(violations, Violation{
			Code:    ViolationInvalidQuantity,
			Message: fmt.Sprintf("quantity %d must be positive", order.Quantity),
		})
	}

	if order.Quantity > g.limits.MaxSharesPerOrder {
		violations = append(violations, Violation{
			Code: ViolationSizeExceeded,
			Message: fmt.Sprintf("quantity %d exceeds limit of %d for %s",
				order.Quantity, g.limits.MaxSharesPerOrder, order.Symbol),
		})
	}

	if notional := order.Notional(); notional > g.limits.MaxDollarValue {
		violations = append(violations, Violation{
			Code: ViolationNotionalExceeded,
			Message: fmt.Sprintf("order value $%.2f exceeds limit of $%.2f for %s",
				notional, g.limits.MaxDollarValue, order.Symbol),
		})
	}

	if order.OrderType == types.OrderTypeLimit && order.LimitPrice.IsSome() && order.ReferencePrice > 0 {
		limitPrice := order.LimitPrice.Unwrap()

		deviation := math.Abs(limitPrice-order.ReferencePrice) / order.ReferencePrice
		if deviation > g.limits.MaxPriceDeviationPct {
			violations = append(violations, Violation{
				Code: ViolationPriceDeviation,
				Message: fmt.Sprintf("limit price %.2f deviates %.2f%% from market price %.2f for %s, max allowed is %.2f%%",
					limitPrice, deviation*100, order.ReferencePrice, order.Symbol, g.limits.MaxPriceDeviationPct*100),
			})
		}
	}

	if len(violations) == 0 {
		return nil
	}

	return errors.Wrap(errors.ErrCodeSafetyViolation, "order rejected by safety gate", &ViolationError{Violations: violations})
}

// AsViolation extracts the *ViolationError from an error chain, if present.
func AsViolation(err error) (*ViolationError, bool) {
	var violationErr *ViolationError
	if errors.As(err, &violationErr) {
		return violationErr, true
	}

	return nil, false
}
