package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/utils"
	"gorm.io/gorm"
)

type Payment struct {
	ID            int             `gorm:"primary_key" json:"id"`
	PaymentNumber string          `gorm:"size:10;not null;uniqueIndex" json:"payment_number"`
	PaymentDate   MyDate          `gorm:"type:date;not null;index" json:"payment_date"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Note          string          `gorm:"type:text" json:"note"`
	CommitmentId  int             `gorm:"index;not null" json:"commitment_id"`
	Commitment    *Commitment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p Payment) GetId() int {
	return p.ID
}

type NewPayment struct {
	PaymentNumber string           `json:"payment_number" validate:"notblank"`
	PaymentDate   MyDate           `json:"payment_date" validate:"required"`
	Amount        *decimal.Decimal `json:"amount" validate:"required,gt=0,lte=9999999999999.99"`
	Note          string           `json:"note" validate:"max=1000"`
	CommitmentId  int              `json:"commitment_id" validate:"required"`
}

type PaymentFilter struct {
	CommitmentId *int
	FromDate     *MyDate
	ToDate       *MyDate
}

func paymentNotFound(err error, field string, value any) error {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return utils.NewNotFoundError("Payment", field, value)
	}
	return err
}

func duplicatePaymentNumber(number string) error {
	return utils.NewBusinessRuleError("A payment with payment number %s already exists", number)
}

func (input *NewPayment) validateFields() error {
	if input.Amount != nil {
		rounded := input.Amount.Round(amountScale)
		input.Amount = &rounded
	}
	return utils.ValidateStruct(input).ErrOrNil()
}

// validate number format, year and uniqueness. (id = 0 for create)
func (input *NewPayment) validate(ctx context.Context, tx *gorm.DB, id int) error {
	if err := validatePaymentNumber(input.PaymentNumber, utils.NowFromContext(ctx).Year()); err != nil {
		return err
	}
	unique, err := utils.IsUnique[Payment](ctx, tx, "payment_number", input.PaymentNumber, id)
	if err != nil {
		return err
	}
	if !unique {
		return duplicatePaymentNumber(input.PaymentNumber)
	}
	return nil
}

func CreatePayment(ctx context.Context, input *NewPayment) (*Payment, error) {
	if err := input.validateFields(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	if err := input.validate(ctx, tx, 0); err != nil {
		tx.Rollback()
		return nil, err
	}

	expense, commitment, err := lockCommitment(ctx, tx, input.CommitmentId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	summary, err := getCommitmentSummary(ctx, tx, commitment.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	remaining := summary.RemainingAmount(commitment.Amount)
	if input.Amount.GreaterThan(remaining) {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Payment amount exceeds the remaining commitment amount. Remaining: %s", utils.FormatAmount(remaining))
	}

	payment := Payment{
		PaymentNumber: input.PaymentNumber,
		PaymentDate:   input.PaymentDate,
		Amount:        *input.Amount,
		Note:          input.Note,
		CommitmentId:  commitment.ID,
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicatePaymentNumber(input.PaymentNumber)
		}
		return nil, err
	}

	change, err := refreshExpenseStatus(ctx, tx, expense)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	notifyStatusChange(ctx, change, "payment.create")
	return &payment, nil
}

func UpdatePayment(ctx context.Context, id int, input *NewPayment) (*Payment, error) {
	if err := input.validateFields(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	existing, err := utils.FetchModel[Payment](ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, paymentNotFound(err, "id", id)
	}
	if err := input.validate(ctx, tx, id); err != nil {
		tx.Rollback()
		return nil, err
	}
	if input.CommitmentId != existing.CommitmentId {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Cannot change the commitment associated with a payment")
	}

	expense, commitment, err := lockCommitment(ctx, tx, existing.CommitmentId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	payment, err := utils.FetchModelForUpdate[Payment](ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, paymentNotFound(err, "id", id)
	}

	summary, err := getCommitmentSummary(ctx, tx, commitment.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	// capacity without this payment's current amount
	remaining := summary.RemainingAmount(commitment.Amount).Add(payment.Amount)
	if input.Amount.GreaterThan(remaining) {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Payment amount exceeds the remaining commitment amount. Remaining: %s", utils.FormatAmount(remaining))
	}

	err = tx.Model(&Payment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"payment_number": input.PaymentNumber,
		"payment_date":   input.PaymentDate,
		"amount":         *input.Amount,
		"note":           input.Note,
	}).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicatePaymentNumber(input.PaymentNumber)
		}
		return nil, err
	}
	if err := tx.First(payment, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	change, err := refreshExpenseStatus(ctx, tx, expense)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	notifyStatusChange(ctx, change, "payment.update")
	return payment, nil
}

func DeletePayment(ctx context.Context, id int) (*Payment, error) {
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	existing, err := utils.FetchModel[Payment](ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, paymentNotFound(err, "id", id)
	}
	expense, _, err := lockCommitment(ctx, tx, existing.CommitmentId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	payment, err := utils.FetchModelForUpdate[Payment](ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, paymentNotFound(err, "id", id)
	}

	if err := tx.Delete(payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	change, err := refreshExpenseStatus(ctx, tx, expense)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	notifyStatusChange(ctx, change, "payment.delete")
	return payment, nil
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	payment, err := utils.FetchModel[Payment](ctx, config.GetDB(), id)
	if err != nil {
		return nil, paymentNotFound(err, "id", id)
	}
	return payment, nil
}

func GetPaymentByNumber(ctx context.Context, number string) (*Payment, error) {
	payment, err := utils.FetchModelWhere[Payment](ctx, config.GetDB(), "payment_number = ?", number)
	if err != nil {
		return nil, paymentNotFound(err, "payment number", number)
	}
	return payment, nil
}

// GetPaymentsByCommitmentId fails with NotFound when the commitment does not exist.
func GetPaymentsByCommitmentId(ctx context.Context, commitmentId int) ([]*Payment, error) {
	if err := utils.ValidateResourceId[Commitment](ctx, config.GetDB(), commitmentId); err != nil {
		return nil, commitmentNotFound(err, "id", commitmentId)
	}
	return ListPayments(ctx, &PaymentFilter{CommitmentId: &commitmentId})
}

func ListPayments(ctx context.Context, filter *PaymentFilter) ([]*Payment, error) {
	dbCtx := config.GetDB().WithContext(ctx).Model(&Payment{})
	if filter != nil {
		if filter.CommitmentId != nil {
			dbCtx = dbCtx.Where("commitment_id = ?", *filter.CommitmentId)
		}
		if filter.FromDate != nil {
			dbCtx = dbCtx.Where("payment_date >= ?", *filter.FromDate)
		}
		if filter.ToDate != nil {
			dbCtx = dbCtx.Where("payment_date <= ?", *filter.ToDate)
		}
	}

	var results []*Payment
	if err := dbCtx.Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
