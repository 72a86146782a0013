// internal/quote/reconcile/reconciler_test.go
package reconcile

import (
	"context"
	"testing"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

type appliedBackfill struct {
	quoteID        string
	premium        float64
	underwriter    string
	commissionRate float64
	terms          string
}

// fakeQuotes stands in for the quote store.
type fakeQuotes struct {
	byID        map[string]*models.Quote
	pending     []*models.Quote
	pendingErr  error
	eligible    []*models.Quote
	eligibleErr error
	expiring    []*models.Quote
	applyErrs   map[string]error
	applied     []appliedBackfill
	converted   map[string]string
	convertErr  error
}

func (f *fakeQuotes) Get(ctx context.Context, quoteID string) (*models.Quote, error) {
	if q := f.byID[quoteID]; q != nil {
		return q, nil
	}
	return nil, errors.NewQuoteNotFoundError(quoteID)
}

func (f *fakeQuotes) ListNeedingBackfill(ctx context.Context, organizationID string) ([]*models.Quote, error) {
	return f.pending, f.pendingErr
}

func (f *fakeQuotes) ApplyBackfill(ctx context.Context, quoteID string, premium float64, underwriter string, commissionRate float64, terms string) error {
	if err := f.applyErrs[quoteID]; err != nil {
		return err
	}
	f.applied = append(f.applied, appliedBackfill{quoteID, premium, underwriter, commissionRate, terms})
	return nil
}

func (f *fakeQuotes) ListConversionEligible(ctx context.Context, organizationID string) ([]*models.Quote, error) {
	return f.eligible, f.eligibleErr
}

func (f *fakeQuotes) ConvertToPolicy(ctx context.Context, quoteID, policyID string) error {
	if f.convertErr != nil {
		return f.convertErr
	}
	if f.converted == nil {
		f.converted = map[string]string{}
	}
	f.converted[quoteID] = policyID
	return nil
}

func (f *fakeQuotes) ListExpiring(ctx context.Context, daysAhead int) ([]*models.Quote, error) {
	return f.expiring, nil
}

// statefulQuotes mutates its rows the way the real store does, so the
// pending set shrinks as backfills land.
type statefulQuotes struct {
	fakeQuotes
	all []*models.Quote
}

func (f *statefulQuotes) ListNeedingBackfill(ctx context.Context, organizationID string) ([]*models.Quote, error) {
	pending := []*models.Quote{}
	for _, q := range f.all {
		if q.NeedsBackfill() {
			pending = append(pending, q)
		}
	}
	return pending, nil
}

func (f *statefulQuotes) ApplyBackfill(ctx context.Context, quoteID string, premium float64, underwriter string, commissionRate float64, terms string) error {
	for _, q := range f.all {
		if q.ID == quoteID {
			q.Premium = premium
			q.Underwriter = underwriter
			q.CommissionRate = commissionRate
			q.TermsConditions = terms
		}
	}
	f.applied = append(f.applied, appliedBackfill{quoteID, premium, underwriter, commissionRate, terms})
	return nil
}

// fakeEvals returns a canned best response per quote.
type fakeEvals struct {
	best map[string]*models.EvaluatedQuote
	errs map[string]error
}

func (f *fakeEvals) BestForQuote(ctx context.Context, quoteID string) (*models.EvaluatedQuote, error) {
	if err := f.errs[quoteID]; err != nil {
		return nil, err
	}
	return f.best[quoteID], nil
}

func pendingQuote(id string) *models.Quote {
	return &models.Quote{
		ID:            id,
		QuoteNumber:   "QF-" + id,
		WorkflowStage: models.StageCompleted,
		Underwriter:   models.PendingUnderwriter,
	}
}

func bestResponse(premium float64, insurer string) *models.EvaluatedQuote {
	return &models.EvaluatedQuote{
		InsurerName:      insurer,
		PremiumQuoted:    premium,
		CommissionSplit:  12.5,
		TermsConditions:  "Standard fire and special perils wording",
		ResponseReceived: true,
		RatingScore:      82,
	}
}

// ==========================
// Backfill Tests
// ==========================

func TestReconciler_BackfillCopiesBestResponse(t *testing.T) {
	quotes := &fakeQuotes{pending: []*models.Quote{pendingQuote("q-1")}}
	evals := &fakeEvals{best: map[string]*models.EvaluatedQuote{
		"q-1": bestResponse(450000, "Leadway Assurance"),
	}}
	r := New(quotes, evals, newTestLogger(t))

	applied, err := r.Backfill(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Len(t, quotes.applied, 1)
	assert.Equal(t, appliedBackfill{
		quoteID:        "q-1",
		premium:        450000,
		underwriter:    "Leadway Assurance",
		commissionRate: 12.5,
		terms:          "Standard fire and special perils wording",
	}, quotes.applied[0])
}

func TestReconciler_BackfillSkipsQuotesWithoutSource(t *testing.T) {
	quotes := &fakeQuotes{pending: []*models.Quote{
		pendingQuote("q-1"),
		pendingQuote("q-2"),
		pendingQuote("q-3"),
	}}
	evals := &fakeEvals{
		best: map[string]*models.EvaluatedQuote{
			"q-2": bestResponse(300000, "AIICO"),
		},
		errs: map[string]error{
			"q-3": errors.NewQueryExecutionFailedError("best evaluated quote", context.DeadlineExceeded),
		},
	}
	r := New(quotes, evals, newTestLogger(t))

	applied, err := r.Backfill(context.Background(), "org-1")
	assert.NoError(t, err, "per-quote failures must not fail the batch")
	assert.Equal(t, 1, applied)
	assert.Len(t, quotes.applied, 1)
	assert.Equal(t, "q-2", quotes.applied[0].quoteID)
}

func TestReconciler_BackfillSkipsFailedWrites(t *testing.T) {
	quotes := &fakeQuotes{
		pending: []*models.Quote{pendingQuote("q-1"), pendingQuote("q-2")},
		applyErrs: map[string]error{
			"q-1": errors.NewQueryExecutionFailedError("backfill quote", context.DeadlineExceeded),
		},
	}
	evals := &fakeEvals{best: map[string]*models.EvaluatedQuote{
		"q-1": bestResponse(100000, "Custodian"),
		"q-2": bestResponse(200000, "AXA Mansard"),
	}}
	r := New(quotes, evals, newTestLogger(t))

	applied, err := r.Backfill(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, applied)
}

func TestReconciler_BackfillListFailureSurfaces(t *testing.T) {
	quotes := &fakeQuotes{pendingErr: errors.NewQueryExecutionFailedError("list quotes needing backfill", context.DeadlineExceeded)}
	r := New(quotes, &fakeEvals{}, newTestLogger(t))

	_, err := r.Backfill(context.Background(), "org-1")
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.ToStandardError(err).Code)
}

func TestReconciler_BackfillNothingPending(t *testing.T) {
	quotes := &fakeQuotes{}
	r := New(quotes, &fakeEvals{}, newTestLogger(t))

	applied, err := r.Backfill(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Zero(t, applied)
	assert.Empty(t, quotes.applied)
}

func TestReconciler_BackfillSecondRunAppliesNothing(t *testing.T) {
	quotes := &statefulQuotes{all: []*models.Quote{pendingQuote("q-1")}}
	evals := &fakeEvals{best: map[string]*models.EvaluatedQuote{
		"q-1": bestResponse(450000, "Leadway Assurance"),
	}}
	r := New(quotes, evals, newTestLogger(t))

	applied, err := r.Backfill(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, applied)
	snapshot := *quotes.all[0]

	applied, err = r.Backfill(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Zero(t, applied, "repaired quotes must not be picked up again")
	assert.Len(t, quotes.applied, 1)
	assert.Equal(t, snapshot, *quotes.all[0], "second pass must leave the quote untouched")
}

// ==========================
// Conversion Eligibility Tests
// ==========================

func eligibleQuote(id string) *models.Quote {
	contract := "https://files.example.com/" + id + ".pdf"
	return &models.Quote{
		ID:               id,
		QuoteNumber:      "QF-" + id,
		ClientName:       "Dangote Industries",
		Premium:          250000,
		SumInsured:       50000000,
		Underwriter:      "Leadway Assurance",
		WorkflowStage:    models.StageCompleted,
		FinalContractURL: &contract,
	}
}

func TestReconciler_ListConversionEligibleRunsBackfillFirst(t *testing.T) {
	quotes := &fakeQuotes{
		pending:  []*models.Quote{pendingQuote("q-1")},
		eligible: []*models.Quote{eligibleQuote("q-1")},
	}
	evals := &fakeEvals{best: map[string]*models.EvaluatedQuote{
		"q-1": bestResponse(250000, "Leadway Assurance"),
	}}
	r := New(quotes, evals, newTestLogger(t))

	result, err := r.ListConversionEligible(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Len(t, quotes.applied, 1, "backfill pass should run before listing")
	assert.Len(t, result, 1)
}

func TestReconciler_ListConversionEligibleDropsInvalidRows(t *testing.T) {
	missingContract := eligibleQuote("q-2")
	missingContract.FinalContractURL = nil
	alreadyConverted := eligibleQuote("q-3")
	policyID := "pol-9"
	alreadyConverted.ConvertedToPolicy = &policyID

	quotes := &fakeQuotes{eligible: []*models.Quote{
		eligibleQuote("q-1"),
		missingContract,
		alreadyConverted,
	}}
	r := New(quotes, &fakeEvals{}, newTestLogger(t))

	result, err := r.ListConversionEligible(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "q-1", result[0].ID)
}

func TestReconciler_ListConversionEligibleListFailureSurfaces(t *testing.T) {
	quotes := &fakeQuotes{eligibleErr: errors.NewQueryExecutionFailedError("list conversion eligible quotes", context.DeadlineExceeded)}
	r := New(quotes, &fakeEvals{}, newTestLogger(t))

	_, err := r.ListConversionEligible(context.Background(), "org-1")
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.ToStandardError(err).Code)
}

// ==========================
// Policy Conversion Tests
// ==========================

func TestReconciler_ConvertEligibleQuote(t *testing.T) {
	quotes := &fakeQuotes{byID: map[string]*models.Quote{"q-1": eligibleQuote("q-1")}}
	r := New(quotes, &fakeEvals{}, newTestLogger(t))

	q, err := r.Convert(context.Background(), "q-1", "pol-7")
	assert.NoError(t, err)
	assert.Equal(t, "pol-7", quotes.converted["q-1"])
	assert.Equal(t, models.StageConverted, q.WorkflowStage)
	assert.Equal(t, models.StatusAccepted, q.Status)
	assert.NotNil(t, q.ConvertedToPolicy)
	assert.Equal(t, "pol-7", *q.ConvertedToPolicy)
}

func TestReconciler_ConvertRepairsPlaceholderFinancialsFirst(t *testing.T) {
	needsRepair := eligibleQuote("q-1")
	needsRepair.Premium = 0
	needsRepair.Underwriter = models.PendingUnderwriter

	quotes := &fakeQuotes{byID: map[string]*models.Quote{"q-1": needsRepair}}
	evals := &fakeEvals{best: map[string]*models.EvaluatedQuote{
		"q-1": bestResponse(250000, "Leadway Assurance"),
	}}
	r := New(quotes, evals, newTestLogger(t))

	q, err := r.Convert(context.Background(), "q-1", "pol-7")
	assert.NoError(t, err)
	assert.Len(t, quotes.applied, 1, "placeholder financials should be repaired inline")
	assert.Equal(t, 250000.0, q.Premium)
	assert.Equal(t, "Leadway Assurance", q.Underwriter)
	assert.Equal(t, "pol-7", quotes.converted["q-1"])
}

func TestReconciler_ConvertWithoutBackfillSourceFails(t *testing.T) {
	needsRepair := eligibleQuote("q-1")
	needsRepair.Premium = 0

	quotes := &fakeQuotes{byID: map[string]*models.Quote{"q-1": needsRepair}}
	r := New(quotes, &fakeEvals{}, newTestLogger(t))

	_, err := r.Convert(context.Background(), "q-1", "pol-7")
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeBackfillSourceMissing, errors.ToStandardError(err).Code)
	assert.False(t, errors.ToStandardError(err).Retryable)
	assert.Empty(t, quotes.converted)
}

func TestReconciler_ConvertIneligibleQuoteRejected(t *testing.T) {
	noContract := eligibleQuote("q-1")
	noContract.FinalContractURL = nil

	quotes := &fakeQuotes{byID: map[string]*models.Quote{"q-1": noContract}}
	r := New(quotes, &fakeEvals{}, newTestLogger(t))

	_, err := r.Convert(context.Background(), "q-1", "pol-7")
	assert.Error(t, err)
	assert.Equal(t, errors.ErrorCode("BUSINESS_RULE_VIOLATION"), errors.ToStandardError(err).Code)
	assert.Empty(t, quotes.converted)
}

func TestReconciler_ConvertUnknownQuote(t *testing.T) {
	quotes := &fakeQuotes{}
	r := New(quotes, &fakeEvals{}, newTestLogger(t))

	_, err := r.Convert(context.Background(), "missing", "pol-7")
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeQuoteNotFound, errors.ToStandardError(err).Code)
}

// ==========================
// Expiry Window Tests
// ==========================

func TestReconciler_ExpiringReturnsWindow(t *testing.T) {
	quotes := &fakeQuotes{expiring: []*models.Quote{eligibleQuote("q-1"), eligibleQuote("q-2")}}
	r := New(quotes, &fakeEvals{}, newTestLogger(t))

	expiring, err := r.Expiring(context.Background(), 30)
	assert.NoError(t, err)
	assert.Len(t, expiring, 2)
}
