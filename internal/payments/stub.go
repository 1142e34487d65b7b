package payments

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
)

// StubProvider is an in-memory Provider for development and tests. Every
// created session immediately reports as paid when its status is polled.
type StubProvider struct {
	mu       sync.Mutex
	sessions map[string]CheckoutRequest
}

// NewStubProvider creates an empty stub provider.
func NewStubProvider() *StubProvider {
	return &StubProvider{sessions: make(map[string]CheckoutRequest)}
}

// CreateCheckoutSession records the request and returns a fake session.
func (p *StubProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	id := "cs_stub_" + uuid.NewString()

	p.mu.Lock()
	p.sessions[id] = req
	p.mu.Unlock()

	return &CheckoutSession{
		SessionID: id,
		URL:       "https://checkout.stripe.example/pay/" + id,
	}, nil
}

// CheckoutStatus reports a known session as complete and paid.
func (p *StubProvider) CheckoutStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error) {
	p.mu.Lock()
	req, ok := p.sessions[sessionID]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown checkout session %q", sessionID)
	}

	return &CheckoutStatus{
		Status:        "complete",
		PaymentStatus: "paid",
		AmountTotal:   int64(math.Round(req.Amount * 100)),
		Currency:      req.Currency,
	}, nil
}
