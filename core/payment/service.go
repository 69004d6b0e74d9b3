package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/upscaleng/upscale/core"
	"github.com/upscaleng/upscale/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("payment not found")
	ErrUnknownPlan        = errors.New("unknown payment plan")
	ErrVerificationFailed = errors.New("payment verification failed")
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, pmt Payment, exec ...core.DBExecutor) (Payment, error)
		GetPaymentByReference(ctx context.Context, reference string, exec ...core.DBExecutor) (Payment, error)
		UpdatePayment(ctx context.Context, pmt Payment, exec ...core.DBExecutor) (Payment, error)
	}

	ServiceInterface interface {
		// Enroll records the chosen plan on the user, initializes a gateway
		// transaction and returns the checkout authorization.
		Enroll(ctx context.Context, usr user.User, plan string) (Authorization, error)
		// Confirm verifies a gateway callback by reference and settles the
		// pending payment. Gateway refusals surface as ErrVerificationFailed.
		Confirm(ctx context.Context, reference string) (Payment, error)
	}

	service struct {
		repo    Repository
		usrSvc  user.ServiceInterface
		gateway Gateway
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(
	repo Repository,
	usrSvc user.ServiceInterface,
	gateway Gateway,
	mailSvc core.EmailService,
	conf *core.Config,
) *service {
	return &service{
		repo:    repo,
		usrSvc:  usrSvc,
		gateway: gateway,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) Enroll(ctx context.Context, usr user.User, plan string) (Authorization, error) {
	var amount int
	switch plan {
	case PlanFull:
		amount = svc.conf.Enrollment.FullPrice
	case PlanMonthly:
		amount = svc.conf.Enrollment.MonthlyPrice
	default:
		return Authorization{}, ErrUnknownPlan
	}

	usr, err := svc.usrSvc.SetPaymentPlan(ctx, usr, plan)
	if err != nil {
		return Authorization{}, errors.Wrap(err, "setting payment plan")
	}

	auth, err := svc.gateway.Initialize(ctx, InitTransaction{
		Email:       usr.Email,
		Amount:      amount,
		Reference:   newReference(usr),
		CallbackURL: svc.conf.Paystack.CallbackURL,
	})
	if err != nil {
		return Authorization{}, errors.Wrap(err, "initializing transaction")
	}

	now := time.Now().UTC()
	pmt := Payment{
		Reference: auth.Reference,
		UserID:    usr.ID,
		Plan:      plan,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err = svc.repo.CreatePayment(ctx, pmt); err != nil {
		return Authorization{}, errors.Wrap(err, "creating payment")
	}
	return auth, nil
}

func (svc *service) Confirm(ctx context.Context, reference string) (Payment, error) {
	pmt, err := svc.repo.GetPaymentByReference(ctx, core.CleanString(reference))
	if err != nil {
		return Payment{}, err
	}

	paid, err := svc.gateway.Verify(ctx, pmt.Reference)
	if err != nil || !paid {
		// gateway errors read as failed verification; the payer can retry
		return Payment{}, ErrVerificationFailed
	}

	pmt.Status = StatusSuccess
	pmt.UpdatedAt = time.Now().UTC()
	if pmt, err = svc.repo.UpdatePayment(ctx, pmt); err != nil {
		return Payment{}, errors.Wrap(err, "updating payment")
	}

	if usr, err := svc.usrSvc.GetByID(ctx, pmt.UserID); err == nil {
		svc.sendReceiptMail(usr, pmt)
	}
	return pmt, nil
}

// newReference builds a globally unique gateway transaction reference.
func newReference(usr user.User) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("upscale_%s_%s", usr.ID, hex.EncodeToString(buf))
}

func (svc *service) sendReceiptMail(usr user.User, pmt Payment) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Payment Received",
		TemplateName: "payment-receipt",
		TemplateData: struct {
			Name      string
			Amount    string
			Reference string
			Plan      string
		}{usr.Name, formatKobo(pmt.Amount), pmt.Reference, pmt.Plan},
	})
}

// formatKobo renders a kobo amount as naira, eg. 15000000 -> "₦150,000.00".
func formatKobo(amount int) string {
	naira := amount / 100
	kobo := amount % 100

	s := fmt.Sprintf("%d", naira)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return fmt.Sprintf("₦%s.%02d", s, kobo)
}
