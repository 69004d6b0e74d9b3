package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Plans
const (
	PlanFull    = "full"
	PlanMonthly = "monthly"
)

// Statuses
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Payment struct {
	ID        string    `db:"id" json:"id"`
	Reference string    `db:"reference" json:"reference"`
	UserID    string    `db:"user_id" json:"-"`
	Plan      string    `db:"plan" json:"plan"`
	Amount    int       `db:"amount" json:"amount"` // in kobo
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // UTC
}

// Enrollment is the enroll form: which payment plan the student picked.
type Enrollment struct {
	Plan string `json:"payment_plan" validate:"required,oneof=full monthly"`
}

func (e *Enrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(e)
}
