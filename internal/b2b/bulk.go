package b2b

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// BulkFailure records one product the template could not be applied to.
type BulkFailure struct {
	ProductID uuid.UUID `json:"productId"`
	Reason    string    `json:"reason"`
}

// BulkReport tallies the outcome of a bulk rule application. Partial success
// is a valid outcome: prior successes are never rolled back and the caller
// receives the full tally instead of a blanket verdict.
type BulkReport struct {
	Applied  int           `json:"applied"`
	Failed   int           `json:"failed"`
	Failures []BulkFailure `json:"failures,omitempty"`
}

// RuleCreator is the single write BulkApply needs.
type RuleCreator interface {
	CreateRule(ctx context.Context, in RuleInput) (PriceRule, error)
}

// BulkApply creates the same rule template for each target product,
// sequentially. A duplicate or unknown product fails that product only.
func (s *Store) BulkApply(ctx context.Context, template RuleInput, productIDs []uuid.UUID) (BulkReport, error) {
	return ApplyRuleTemplate(ctx, s, template, productIDs)
}

// ApplyRuleTemplate runs the bulk application against any rule creator.
func ApplyRuleTemplate(ctx context.Context, rc RuleCreator, template RuleInput, productIDs []uuid.UUID) (BulkReport, error) {
	var report BulkReport
	for _, productID := range productIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		in := template
		in.ProductID = productID
		if _, err := rc.CreateRule(ctx, in); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, BulkFailure{
				ProductID: productID,
				Reason:    bulkReason(err),
			})
			continue
		}
		report.Applied++
	}
	return report, nil
}

func bulkReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateRule):
		return "duplicate rule"
	default:
		return "create failed"
	}
}
