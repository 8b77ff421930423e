package lending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/domain/shared"
)

// PaymentService records contributions and loan repayments. Repayments
// against the same loan are serialized in-process so two concurrent payments
// cannot both allocate against the same schedule entry; payments for
// different loans proceed in parallel.
type PaymentService struct {
	paymentRepo lending.PaymentRepository
	loanRepo    lending.LoanRepository
	auditRepo   lending.AuditLogRepository
	events      shared.EventPublisher
	logger      *zap.Logger

	loanLocks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo lending.PaymentRepository,
	loanRepo lending.LoanRepository,
	auditRepo lending.AuditLogRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		loanRepo:    loanRepo,
		auditRepo:   auditRepo,
		events:      events,
		logger:      logger,
	}
}

// RecordContributionInput contains input for recording a non-loan payment
type RecordContributionInput struct {
	MemberID    uuid.UUID
	PaymentType string
	Amount      decimal.Decimal
	PaymentDate time.Time
	Description string
}

// RecordRepaymentInput contains input for recording a loan repayment
type RecordRepaymentInput struct {
	LoanID      uuid.UUID
	MemberID    uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
}

// ListPaymentsInput contains filtering options for listing payments
type ListPaymentsInput struct {
	MemberID *uuid.UUID
	LoanID   *uuid.UUID
	Types    []string
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	PageSize int
}

// RecordContribution records a membership fee, contribution or levy payment
func (s *PaymentService) RecordContribution(ctx context.Context, input RecordContributionInput) (*PaymentDTO, error) {
	receiptNumber, err := s.generateReceiptNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate receipt number: %w", err)
	}

	payment, err := lending.NewContributionPayment(receiptNumber, input.MemberID,
		lending.PaymentType(input.PaymentType), input.Amount, input.PaymentDate, input.Description)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	s.publish(ctx, lending.NewPaymentRecordedEvent(payment))

	s.logger.Info("contribution recorded",
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.String("payment_type", payment.PaymentType.String()),
		zap.String("amount", payment.Amount.StringFixed(2)))

	dto := toPaymentDTO(payment)
	return &dto, nil
}

// RecordLoanRepayment allocates a repayment against the loan's oldest pending
// installment and records the payment with its principal/interest split.
func (s *PaymentService) RecordLoanRepayment(ctx context.Context, input RecordRepaymentInput) (*RepaymentResultDTO, error) {
	unlock := s.lockLoan(input.LoanID)
	defer unlock()

	loan, err := s.loanRepo.FindByID(ctx, input.LoanID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, lending.ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}

	result, err := loan.AllocatePayment(input.Amount, input.PaymentDate)
	if err != nil {
		return nil, err
	}

	receiptNumber, err := s.generateReceiptNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate receipt number: %w", err)
	}
	payment, err := lending.NewLoanRepaymentPayment(receiptNumber, input.MemberID,
		loan.ID, input.Amount, input.PaymentDate, *result)
	if err != nil {
		return nil, err
	}

	// Loan first: its version check is what guards against a concurrent
	// allocation racing past the in-process lock (multi-instance deployment).
	if err := s.loanRepo.Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}
	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	s.publish(ctx, loan.GetDomainEvents()...)
	loan.ClearDomainEvents()
	s.publish(ctx, lending.NewPaymentRecordedEvent(payment))
	s.audit(ctx, input.MemberID, loan.ID, map[string]any{
		"receipt_number":     payment.ReceiptNumber,
		"loan_number":        loan.LoanNumber,
		"amount":             payment.Amount.StringFixed(2),
		"principal_amount":   result.PrincipalAmount.StringFixed(2),
		"interest_amount":    result.InterestAmount.StringFixed(2),
		"installment_number": result.InstallmentNumber,
	})

	s.logger.Info("loan repayment recorded",
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.String("loan_number", loan.LoanNumber),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("outstanding", loan.GetOutstandingBalanceMoney().String()),
		zap.Int("installment", result.InstallmentNumber),
		zap.Bool("loan_completed", result.LoanCompleted))

	return &RepaymentResultDTO{
		Payment:           toPaymentDTO(payment),
		InstallmentNumber: result.InstallmentNumber,
		PrincipalAmount:   result.PrincipalAmount,
		InterestAmount:    result.InterestAmount,
		RemainingBalance:  result.RemainingBalance,
		LoanCompleted:     result.LoanCompleted,
	}, nil
}

// ListPayments lists payments with filtering and pagination
func (s *PaymentService) ListPayments(ctx context.Context, input ListPaymentsInput) ([]PaymentDTO, *ListMeta, error) {
	filter := lending.PaymentFilter{
		MemberID: input.MemberID,
		LoanID:   input.LoanID,
		FromDate: input.FromDate,
		ToDate:   input.ToDate,
		Page:     input.Page,
		PageSize: input.PageSize,
	}
	for _, raw := range input.Types {
		pt := lending.PaymentType(raw)
		if !pt.IsValid() {
			return nil, nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", fmt.Sprintf("Unknown payment type: %s", raw))
		}
		filter.Types = append(filter.Types, pt)
	}

	payments, total, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list payments: %w", err)
	}

	dtos := make([]PaymentDTO, 0, len(payments))
	for i := range payments {
		dtos = append(dtos, toPaymentDTO(&payments[i]))
	}
	meta := &ListMeta{Total: total, Page: input.Page, PageSize: input.PageSize}
	return dtos, meta, nil
}

// lockLoan serializes repayment processing per loan
func (s *PaymentService) lockLoan(loanID uuid.UUID) func() {
	v, _ := s.loanLocks.LoadOrStore(loanID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// generateReceiptNumber builds the next sequential receipt number for the
// current month. Format: RCP<year><month><seq, 4 digits>.
func (s *PaymentService) generateReceiptNumber(ctx context.Context) (string, error) {
	prefix := "RCP" + time.Now().Format("200601")
	count, err := s.paymentRepo.CountByReceiptPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func (s *PaymentService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish payment events", zap.Error(err))
	}
}

func (s *PaymentService) audit(ctx context.Context, actorID, loanID uuid.UUID, values map[string]any) {
	payload, err := json.Marshal(values)
	if err != nil {
		s.logger.Warn("failed to marshal audit payload", zap.Error(err))
		return
	}
	entry, err := lending.NewAuditEntry(actorID, lending.AuditActionPayment, "Loan", loanID, string(payload))
	if err != nil {
		s.logger.Warn("failed to build audit entry", zap.Error(err))
		return
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append audit entry", zap.Error(err))
	}
}
