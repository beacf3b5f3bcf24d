package payoneer

import (
	"context"

	"technest-backend/internal/config"
	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
)

const ProviderName = "payoneer"

// Payoneer is the manual path: there is no API session and no machine
// callback. The order stays pending until an admin sends the invoice,
// sees the money arrive and reconciles it by hand.
type adapter struct {
	cfg config.PayoneerConfig
}

func New(cfg config.PayoneerConfig) gateway.Adapter {
	return &adapter{cfg: cfg}
}

func (a *adapter) Name() string                   { return ProviderName }
func (a *adapter) Mode() gateway.ConfirmationMode { return gateway.ModeManual }

func (a *adapter) Initiate(_ context.Context, _ gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	// No network, no redirect. The orchestrator queues the invoice
	// request email instead.
	return &gateway.InitiateResult{}, nil
}

func (a *adapter) VerifyCallback(_ context.Context, _ gateway.Callback) error {
	return model.ErrMalformedCallback
}

func (a *adapter) ParseCallback(_ gateway.Callback) (*gateway.CallbackResult, error) {
	return nil, model.ErrMalformedCallback
}
