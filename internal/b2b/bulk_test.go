package b2b

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeRuleCreator struct {
	failWith map[uuid.UUID]error
	created  []RuleInput
}

func (f *fakeRuleCreator) CreateRule(_ context.Context, in RuleInput) (PriceRule, error) {
	if err, ok := f.failWith[in.ProductID]; ok {
		return PriceRule{}, err
	}
	f.created = append(f.created, in)
	return PriceRule{ID: uuid.New(), ProductID: in.ProductID}, nil
}

func TestApplyRuleTemplateAllSucceed(t *testing.T) {
	rc := &fakeRuleCreator{}
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	report, err := ApplyRuleTemplate(context.Background(), rc, RuleInput{}, ids)
	if err != nil {
		t.Fatal(err)
	}
	if report.Applied != 3 || report.Failed != 0 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v, want 3 applied", report)
	}
	for i, in := range rc.created {
		if in.ProductID != ids[i] {
			t.Fatalf("rule %d created for %s, want %s", i, in.ProductID, ids[i])
		}
	}
}

func TestApplyRuleTemplatePartialFailureKeepsPriorSuccesses(t *testing.T) {
	ok1, dup, broken, ok2 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	rc := &fakeRuleCreator{failWith: map[uuid.UUID]error{
		dup:    ErrDuplicateRule,
		broken: errors.New("fk violation"),
	}}
	report, err := ApplyRuleTemplate(context.Background(), rc, RuleInput{}, []uuid.UUID{ok1, dup, broken, ok2})
	if err != nil {
		t.Fatal(err)
	}
	if report.Applied != 2 || report.Failed != 2 {
		t.Fatalf("report = %+v, want 2 applied / 2 failed", report)
	}
	// ok2 comes after both failures; a failure must not stop the run or undo
	// earlier creates.
	if len(rc.created) != 2 || rc.created[0].ProductID != ok1 || rc.created[1].ProductID != ok2 {
		t.Fatalf("created = %+v, want rules for %s and %s", rc.created, ok1, ok2)
	}
	if report.Failures[0].ProductID != dup || report.Failures[0].Reason != "duplicate rule" {
		t.Fatalf("failure[0] = %+v, want duplicate rule for %s", report.Failures[0], dup)
	}
	if report.Failures[1].ProductID != broken || report.Failures[1].Reason != "create failed" {
		t.Fatalf("failure[1] = %+v, want create failed for %s", report.Failures[1], broken)
	}
}

func TestApplyRuleTemplateStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc := &fakeRuleCreator{}
	report, err := ApplyRuleTemplate(ctx, rc, RuleInput{}, []uuid.UUID{uuid.New()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if report.Applied != 0 || len(rc.created) != 0 {
		t.Fatalf("report = %+v with %d creates, want none", report, len(rc.created))
	}
}
