// internal/quote/aggregate/pool_test.go
package aggregate

import (
	"strings"
	"testing"
	"time"

	"quoteflow-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestDispatches() []models.InsurerDispatch {
	now := time.Now()
	return []models.InsurerDispatch{
		{
			InsurerID:       "ins-1",
			InsurerName:     "Leadway Assurance",
			InsurerEmail:    "quotes@leadway.test",
			CommissionSplit: 12.5,
			DispatchedAt:    now,
		},
		{
			InsurerID:       "ins-2",
			InsurerName:     "AXA Mansard",
			InsurerEmail:    "quotes@axa.test",
			CommissionSplit: 10,
			DispatchedAt:    now,
		},
	}
}

// ==========================
// Pool Construction Tests
// ==========================

func TestNewPool_SeedsDispatchedCandidates(t *testing.T) {
	pool := NewPool(createTestDispatches())

	assert.Len(t, pool.Dispatched, 2)
	assert.Empty(t, pool.Manual)

	first := pool.Dispatched[0]
	assert.Equal(t, "ins-1", first.Key)
	assert.Equal(t, "Leadway Assurance", first.InsurerName)
	assert.Equal(t, 12.5, first.CommissionSplit)
	assert.Equal(t, models.SourceDispatched, first.Source)
	assert.False(t, first.ResponseReceived)
	assert.NotNil(t, first.DispatchedAt)
}

func TestNewPool_EmptyDispatchListYieldsEmptyPool(t *testing.T) {
	pool := NewPool(nil)

	assert.NotNil(t, pool)
	assert.Empty(t, pool.Dispatched)
	assert.Empty(t, pool.Manual)
	assert.Empty(t, pool.All())
}

// ==========================
// Manual Candidate Tests
// ==========================

func TestPool_AddManual(t *testing.T) {
	pool := NewPool(nil)

	c := pool.AddManual()

	assert.Len(t, pool.Manual, 1)
	assert.True(t, strings.HasPrefix(c.Key, "manual-"))
	assert.Equal(t, models.SourceManual, c.Source)
	assert.NotNil(t, c.Exclusions)
	assert.NotNil(t, c.CoverageLimits)

	// Keys must be unique across additions.
	c2 := pool.AddManual()
	assert.NotEqual(t, c.Key, c2.Key)
}

func TestPool_RemoveManual(t *testing.T) {
	pool := NewPool(nil)
	first := pool.AddManual()
	pool.AddManual()

	err := pool.RemoveManual(0)
	assert.NoError(t, err)
	assert.Len(t, pool.Manual, 1)
	assert.NotEqual(t, first.Key, pool.Manual[0].Key)

	err = pool.RemoveManual(5)
	assert.Error(t, err)
}

// ==========================
// Positional Update Tests
// ==========================

func TestPool_PositionalUpdates(t *testing.T) {
	pool := NewPool(createTestDispatches())
	pool.AddManual()

	err := pool.UpdateDispatched(1, func(c *models.CandidateQuote) {
		c.PremiumQuoted = 2_500_000
		c.ResponseReceived = true
	})
	assert.NoError(t, err)
	assert.Equal(t, 2_500_000.0, pool.Dispatched[1].PremiumQuoted)
	assert.True(t, pool.Dispatched[1].ResponseReceived)

	err = pool.UpdateManual(0, func(c *models.CandidateQuote) {
		c.InsurerName = "Walk-in Insurer"
	})
	assert.NoError(t, err)
	assert.Equal(t, "Walk-in Insurer", pool.Manual[0].InsurerName)

	assert.Error(t, pool.UpdateDispatched(9, func(*models.CandidateQuote) {}))
	assert.Error(t, pool.UpdateManual(-1, func(*models.CandidateQuote) {}))
}

func TestPool_ApplyExtraction(t *testing.T) {
	pool := NewPool(createTestDispatches())

	err := pool.ApplyExtraction(models.SourceDispatched, 0, models.ExtractedData{
		Premium:         3_000_000,
		TermsConditions: "Standard fire and special perils cover with flood extension.",
		Exclusions:      []string{"war", "nuclear"},
		CoverageLimits:  map[string]string{"fire": "50000000"},
		DocumentURL:     "https://docs.test/quote-1.pdf",
	})

	assert.NoError(t, err)
	c := pool.Dispatched[0]
	assert.Equal(t, 3_000_000.0, c.PremiumQuoted)
	assert.True(t, c.ResponseReceived)
	assert.Equal(t, []string{"war", "nuclear"}, c.Exclusions)
	assert.Equal(t, "https://docs.test/quote-1.pdf", c.DocumentURL)
}

func TestPool_ApplyExtraction_PartialDataStillMarksReceived(t *testing.T) {
	pool := NewPool(createTestDispatches())

	err := pool.ApplyExtraction(models.SourceDispatched, 0, models.ExtractedData{
		DocumentURL: "https://docs.test/scan.pdf",
	})

	assert.NoError(t, err)
	assert.True(t, pool.Dispatched[0].ResponseReceived)
	assert.Zero(t, pool.Dispatched[0].PremiumQuoted)
}

// ==========================
// View and Summary Tests
// ==========================

func TestPool_ViewsAndSummary(t *testing.T) {
	pool := NewPool(createTestDispatches())
	manual := pool.AddManual()
	manual.PremiumQuoted = 1_800_000
	manual.ResponseReceived = true

	_ = pool.UpdateDispatched(0, func(c *models.CandidateQuote) {
		c.ResponseReceived = true
	})

	assert.Len(t, pool.All(), 3)
	assert.Len(t, pool.Priced(), 1)
	assert.Len(t, pool.Received(), 2)

	summary := pool.Summarize()
	assert.Equal(t, Summary{
		Dispatched: 2,
		Manual:     1,
		Received:   2,
		Pending:    1,
	}, summary)
}
