package paymentsvc

import (
	"context"
	"log"
	"sync"

	"github.com/upscaleng/upscale/core"
	"github.com/upscaleng/upscale/core/payment"
)

// consoleGateway approves everything and logs instead of charging anyone.
// The development default so checkouts work without Paystack credentials.
type consoleGateway struct {
	callbackURL   string
	disableOutput bool

	mu         sync.Mutex
	references map[string]bool
}

var _ payment.Gateway = (*consoleGateway)(nil)

func NewConsoleGateway(conf *core.Config) *consoleGateway {
	return &consoleGateway{
		callbackURL: conf.Paystack.CallbackURL,
		references:  make(map[string]bool),
	}
}

func (gw *consoleGateway) Initialize(_ context.Context, tx payment.InitTransaction) (payment.Authorization, error) {
	gw.mu.Lock()
	gw.references[tx.Reference] = true
	gw.mu.Unlock()

	if !gw.disableOutput {
		log.Printf("payment initialized: %s %d kobo for %s", tx.Reference, tx.Amount, tx.Email)
	}
	return payment.Authorization{
		AuthorizationURL: gw.callbackURL + "?reference=" + tx.Reference,
		AccessCode:       tx.Reference,
		Reference:        tx.Reference,
	}, nil
}

func (gw *consoleGateway) Verify(_ context.Context, reference string) (bool, error) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return gw.references[reference], nil
}

// ConsoleGatewayMock verifies silently; tests flip Approve to exercise the
// failed-verification path.
type ConsoleGatewayMock struct {
	consoleGateway

	Approve bool
}

func NewConsoleGatewayMock(conf *core.Config) *ConsoleGatewayMock {
	return &ConsoleGatewayMock{
		consoleGateway: consoleGateway{
			callbackURL:   conf.Paystack.CallbackURL,
			disableOutput: true,
			references:    make(map[string]bool),
		},
		Approve: true,
	}
}

func (gw *ConsoleGatewayMock) Verify(ctx context.Context, reference string) (bool, error) {
	if !gw.Approve {
		return false, nil
	}
	return gw.consoleGateway.Verify(ctx, reference)
}
