package payment

import "context"

type (
	// InitTransaction is a transaction initialization request to the gateway.
	InitTransaction struct {
		Email       string
		Amount      int // in kobo
		Reference   string
		CallbackURL string
	}

	// Authorization is the gateway's checkout handle for an initialized
	// transaction: the URL the payer is redirected to.
	Authorization struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}

	// Gateway is the payment processor boundary (Paystack in production).
	Gateway interface {
		Initialize(ctx context.Context, tx InitTransaction) (Authorization, error)
		// Verify reports whether the referenced transaction was paid.
		Verify(ctx context.Context, reference string) (bool, error)
	}
)
