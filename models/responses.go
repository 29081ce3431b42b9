package models

import (
	"github.com/shopspring/decimal"
)

type ExpenseResponse struct {
	*Expense
	ExpenseTypeName      string          `json:"expense_type_name"`
	StatusName           string          `json:"status_name"`
	TotalCommittedAmount decimal.Decimal `json:"total_committed_amount"`
	TotalPaidAmount      decimal.Decimal `json:"total_paid_amount"`
	// amount - total paid
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	// amount - total committed
	UncommittedAmount decimal.Decimal `json:"uncommitted_amount"`
	CommitmentCount   int64           `json:"commitment_count"`
}

func NewExpenseResponse(expense *Expense, summary ExpenseSummary) *ExpenseResponse {
	return &ExpenseResponse{
		Expense:              expense,
		ExpenseTypeName:      expense.ExpenseType.DisplayName(),
		StatusName:           expense.Status.DisplayName(),
		TotalCommittedAmount: summary.TotalCommitted,
		TotalPaidAmount:      summary.TotalPaid,
		RemainingAmount:      summary.RemainingAmount(expense.Amount),
		UncommittedAmount:    summary.UncommittedAmount(expense.Amount),
		CommitmentCount:      summary.CommitmentCount,
	}
}

type CommitmentResponse struct {
	*Commitment
	ExpenseProtocolNumber string          `json:"expense_protocol_number"`
	ExpenseAmount         decimal.Decimal `json:"expense_amount"`
	TotalPaidAmount       decimal.Decimal `json:"total_paid_amount"`
	RemainingAmount       decimal.Decimal `json:"remaining_amount"`
	PaymentCount          int64           `json:"payment_count"`
}

// expense may be nil when it could not be loaded
func NewCommitmentResponse(commitment *Commitment, expense *Expense, summary CommitmentSummary) *CommitmentResponse {
	resp := &CommitmentResponse{
		Commitment:      commitment,
		TotalPaidAmount: summary.TotalPaid,
		RemainingAmount: summary.RemainingAmount(commitment.Amount),
		PaymentCount:    summary.PaymentCount,
	}
	if expense != nil {
		resp.ExpenseProtocolNumber = expense.ProtocolNumber
		resp.ExpenseAmount = expense.Amount
	}
	return resp
}

type PaymentResponse struct {
	*Payment
	CommitmentNumber      string          `json:"commitment_number"`
	CommitmentAmount      decimal.Decimal `json:"commitment_amount"`
	ExpenseId             int             `json:"expense_id"`
	ExpenseProtocolNumber string          `json:"expense_protocol_number"`
}

func NewPaymentResponse(payment *Payment, commitment *Commitment, expense *Expense) *PaymentResponse {
	resp := &PaymentResponse{Payment: payment}
	if commitment != nil {
		resp.CommitmentNumber = commitment.CommitmentNumber
		resp.CommitmentAmount = commitment.Amount
		resp.ExpenseId = commitment.ExpenseId
	}
	if expense != nil {
		resp.ExpenseProtocolNumber = expense.ProtocolNumber
	}
	return resp
}
