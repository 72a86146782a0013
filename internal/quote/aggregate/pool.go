// internal/quote/aggregate/pool.go
package aggregate

import (
	"fmt"

	"quoteflow-workers/internal/models"

	"github.com/google/uuid"
)

// Pool is the working set of candidate quotes for one evaluation session.
// Dispatched and manual candidates live in parallel collections that are
// mutated independently but share the CandidateQuote shape.
type Pool struct {
	Dispatched []*models.CandidateQuote `json:"dispatched"`
	Manual     []*models.CandidateQuote `json:"manual"`
}

// Summary holds the counters shown on the evaluation screen.
type Summary struct {
	Dispatched int `json:"dispatched"`
	Manual     int `json:"manual"`
	Received   int `json:"received"`
	Pending    int `json:"pending"`
}

// NewPool seeds a pool from the insurer-matching dispatch list. An empty
// dispatch list yields an empty pool, never an error.
func NewPool(dispatches []models.InsurerDispatch) *Pool {
	pool := &Pool{
		Dispatched: make([]*models.CandidateQuote, 0, len(dispatches)),
		Manual:     []*models.CandidateQuote{},
	}

	for _, d := range dispatches {
		dispatchedAt := d.DispatchedAt
		pool.Dispatched = append(pool.Dispatched, &models.CandidateQuote{
			Key:             d.InsurerID,
			InsurerID:       d.InsurerID,
			InsurerName:     d.InsurerName,
			InsurerEmail:    d.InsurerEmail,
			CommissionSplit: d.CommissionSplit,
			Exclusions:      []string{},
			CoverageLimits:  map[string]string{},
			Source:          models.SourceDispatched,
			DispatchedAt:    &dispatchedAt,
		})
	}

	return pool
}

// AddManual appends an empty manual candidate with a generated key and
// returns it for filling in.
func (p *Pool) AddManual() *models.CandidateQuote {
	c := &models.CandidateQuote{
		Key:            "manual-" + uuid.New().String(),
		Exclusions:     []string{},
		CoverageLimits: map[string]string{},
		Source:         models.SourceManual,
	}
	p.Manual = append(p.Manual, c)
	return c
}

// RemoveManual removes the manual candidate at position i. The removal is
// permanent for the session.
func (p *Pool) RemoveManual(i int) error {
	if i < 0 || i >= len(p.Manual) {
		return fmt.Errorf("manual candidate index %d out of range (have %d)", i, len(p.Manual))
	}
	p.Manual = append(p.Manual[:i], p.Manual[i+1:]...)
	return nil
}

// UpdateDispatched applies fn to the dispatched candidate at position i.
func (p *Pool) UpdateDispatched(i int, fn func(*models.CandidateQuote)) error {
	if i < 0 || i >= len(p.Dispatched) {
		return fmt.Errorf("dispatched candidate index %d out of range (have %d)", i, len(p.Dispatched))
	}
	fn(p.Dispatched[i])
	return nil
}

// UpdateManual applies fn to the manual candidate at position i.
func (p *Pool) UpdateManual(i int, fn func(*models.CandidateQuote)) error {
	if i < 0 || i >= len(p.Manual) {
		return fmt.Errorf("manual candidate index %d out of range (have %d)", i, len(p.Manual))
	}
	fn(p.Manual[i])
	return nil
}

// ApplyExtraction prefills a candidate from document extraction output and
// marks the response as received.
func (p *Pool) ApplyExtraction(source models.CandidateSource, i int, data models.ExtractedData) error {
	apply := func(c *models.CandidateQuote) {
		if data.Premium > 0 {
			c.PremiumQuoted = data.Premium
		}
		if data.TermsConditions != "" {
			c.TermsConditions = data.TermsConditions
		}
		if len(data.Exclusions) > 0 {
			c.Exclusions = data.Exclusions
		}
		if len(data.CoverageLimits) > 0 {
			c.CoverageLimits = data.CoverageLimits
		}
		if data.DocumentURL != "" {
			c.DocumentURL = data.DocumentURL
		}
		c.ResponseReceived = true
	}

	if source == models.SourceManual {
		return p.UpdateManual(i, apply)
	}
	return p.UpdateDispatched(i, apply)
}

// All returns the combined pool, dispatched candidates first.
func (p *Pool) All() []*models.CandidateQuote {
	all := make([]*models.CandidateQuote, 0, len(p.Dispatched)+len(p.Manual))
	all = append(all, p.Dispatched...)
	all = append(all, p.Manual...)
	return all
}

// Priced returns combined candidates with a quoted premium.
func (p *Pool) Priced() []*models.CandidateQuote {
	priced := []*models.CandidateQuote{}
	for _, c := range p.All() {
		if c.PremiumQuoted > 0 {
			priced = append(priced, c)
		}
	}
	return priced
}

// Received returns combined candidates whose response has arrived.
func (p *Pool) Received() []*models.CandidateQuote {
	received := []*models.CandidateQuote{}
	for _, c := range p.All() {
		if c.ResponseReceived {
			received = append(received, c)
		}
	}
	return received
}

// Summarize computes the evaluation screen counters.
func (p *Pool) Summarize() Summary {
	s := Summary{
		Dispatched: len(p.Dispatched),
		Manual:     len(p.Manual),
	}
	for _, c := range p.All() {
		if c.ResponseReceived {
			s.Received++
		} else {
			s.Pending++
		}
	}
	return s
}
