package payments

import "context"

// CheckoutRequest describes a checkout session to create with the provider.
type CheckoutRequest struct {
	Amount      float64 // in currency units, not cents
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession is a created provider session the client gets redirected to.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// CheckoutStatus is the provider's view of a session.
type CheckoutStatus struct {
	Status        string
	PaymentStatus string
	AmountTotal   int64 // cents
	Currency      string
}

// Provider abstracts the payment processor behind the two calls this
// application needs.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	CheckoutStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error)
}
