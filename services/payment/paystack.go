package paymentsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/upscaleng/upscale/core"
	"github.com/upscaleng/upscale/core/payment"
)

const defaultHost = "https://api.paystack.co"

// paystackGateway drives the Paystack transaction API. One checkout per
// Initialize call; settlement is pulled with Verify on the callback.
type paystackGateway struct {
	key    string
	host   string
	client *http.Client
	logger core.Logger
}

var _ payment.Gateway = (*paystackGateway)(nil)

func NewPaystackGateway(conf *core.Config, logger core.Logger) *paystackGateway {
	host := conf.Paystack.BaseURL
	if host == "" {
		host = defaultHost
	}
	return &paystackGateway{
		key:    conf.Paystack.SecretKey,
		host:   host,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type (
	initializeRequest struct {
		Email       string `json:"email"`
		Amount      int    `json:"amount"` // kobo
		Reference   string `json:"reference"`
		CallbackURL string `json:"callback_url,omitempty"`
	}

	initializeResponse struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}

	verifyResponse struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Status string `json:"status"`
			Amount int    `json:"amount"`
		} `json:"data"`
	}
)

func (gw *paystackGateway) Initialize(ctx context.Context, tx payment.InitTransaction) (payment.Authorization, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       tx.Email,
		Amount:      tx.Amount,
		Reference:   tx.Reference,
		CallbackURL: tx.CallbackURL,
	})
	if err != nil {
		return payment.Authorization{}, errors.Wrap(err, "encoding initialize request")
	}

	var res initializeResponse
	if err = gw.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &res); err != nil {
		return payment.Authorization{}, err
	}
	if !res.Status {
		return payment.Authorization{}, errors.Errorf("initializing transaction: %s", res.Message)
	}
	return payment.Authorization{
		AuthorizationURL: res.Data.AuthorizationURL,
		AccessCode:       res.Data.AccessCode,
		Reference:        res.Data.Reference,
	}, nil
}

func (gw *paystackGateway) Verify(ctx context.Context, reference string) (bool, error) {
	var res verifyResponse
	if err := gw.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &res); err != nil {
		return false, err
	}
	return res.Status && res.Data.Status == "success", nil
}

func (gw *paystackGateway) do(ctx context.Context, method, path string, body *bytes.Reader, out interface{}) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, gw.host+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, gw.host+path, nil)
	}
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Authorization", "Bearer "+gw.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := gw.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling paystack")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		gw.logger.Error(fmt.Sprintf("paystack %s %s - status: %d", method, path, resp.StatusCode))
		return errors.Errorf("paystack unavailable: status %d", resp.StatusCode)
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decoding paystack response")
}
