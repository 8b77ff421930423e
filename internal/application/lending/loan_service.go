package lending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/domain/shared"
)

// LoanService handles the loan origination lifecycle: application, decision,
// disbursement and reads.
type LoanService struct {
	loanRepo  lending.LoanRepository
	auditRepo lending.AuditLogRepository
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewLoanService creates a new LoanService
func NewLoanService(
	loanRepo lending.LoanRepository,
	auditRepo lending.AuditLogRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *LoanService {
	return &LoanService{
		loanRepo:  loanRepo,
		auditRepo: auditRepo,
		events:    events,
		logger:    logger,
	}
}

// CreateLoanInput contains input for a new loan application
type CreateLoanInput struct {
	MemberID   uuid.UUID
	MemberName string
	Principal  decimal.Decimal
	TermMonths int
	Purpose    string
}

// ListLoansInput contains filtering options for listing loans
type ListLoansInput struct {
	MemberID *uuid.UUID
	Statuses []string
	Page     int
	PageSize int
}

// CreateLoan registers a new loan application in PENDING status
func (s *LoanService) CreateLoan(ctx context.Context, input CreateLoanInput) (*LoanDTO, error) {
	loanNumber, err := s.generateLoanNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate loan number: %w", err)
	}

	loan, err := lending.NewLoan(loanNumber, input.MemberID, input.MemberName,
		input.Principal, lending.LoanTerm(input.TermMonths), input.Purpose)
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}
	s.publishEvents(ctx, loan)

	s.logger.Info("loan application created",
		zap.String("loan_number", loan.LoanNumber),
		zap.String("member_id", loan.MemberID.String()),
		zap.String("principal", loan.Principal.StringFixed(2)),
		zap.Int("term_months", loan.TermMonths.Months()))

	return toLoanDTO(loan, false), nil
}

// ApproveLoan approves a pending application
func (s *LoanService) ApproveLoan(ctx context.Context, loanID uuid.UUID) (*LoanDTO, error) {
	loan, err := s.findLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if err := loan.Approve(); err != nil {
		return nil, err
	}
	if err := s.loanRepo.Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}
	s.publishEvents(ctx, loan)

	s.logger.Info("loan approved", zap.String("loan_number", loan.LoanNumber))

	return toLoanDTO(loan, false), nil
}

// RejectLoan rejects a pending application
func (s *LoanService) RejectLoan(ctx context.Context, loanID uuid.UUID, reason string) (*LoanDTO, error) {
	loan, err := s.findLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if err := loan.Reject(reason); err != nil {
		return nil, err
	}
	if err := s.loanRepo.Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}
	s.publishEvents(ctx, loan)

	s.logger.Info("loan rejected",
		zap.String("loan_number", loan.LoanNumber),
		zap.String("reason", reason))

	return toLoanDTO(loan, false), nil
}

// DisburseLoan releases the funds for an approved loan: prices it, generates
// the payment schedule and activates repayment.
func (s *LoanService) DisburseLoan(ctx context.Context, loanID uuid.UUID, actorID uuid.UUID, startDate time.Time) (*LoanDTO, error) {
	loan, err := s.findLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if err := loan.Disburse(startDate); err != nil {
		return nil, err
	}
	if err := s.loanRepo.Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}
	s.publishEvents(ctx, loan)
	s.audit(ctx, actorID, lending.AuditActionDisburse, loan.ID, map[string]any{
		"loan_number":      loan.LoanNumber,
		"amount_disbursed": loan.AmountDisbursed.StringFixed(2),
		"total_amount":     loan.TotalAmount.StringFixed(2),
		"monthly_payment":  loan.MonthlyPayment.StringFixed(2),
	})

	s.logger.Info("loan disbursed",
		zap.String("loan_number", loan.LoanNumber),
		zap.String("amount", loan.GetPrincipalMoney().String()),
		zap.Int("installments", len(loan.Schedule)))

	return toLoanDTO(loan, true), nil
}

// GetLoan returns a loan with its full schedule
func (s *LoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*LoanDTO, error) {
	loan, err := s.findLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toLoanDTO(loan, true), nil
}

// ListLoans lists loans with filtering and pagination
func (s *LoanService) ListLoans(ctx context.Context, input ListLoansInput) ([]LoanDTO, *ListMeta, error) {
	filter := lending.LoanFilter{
		MemberID: input.MemberID,
		Page:     input.Page,
		PageSize: input.PageSize,
	}
	for _, raw := range input.Statuses {
		status := lending.LoanStatus(raw)
		if !status.IsValid() {
			return nil, nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown loan status: %s", raw))
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	loans, total, err := s.loanRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list loans: %w", err)
	}

	dtos := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		dtos = append(dtos, *toLoanDTO(&loans[i], false))
	}
	meta := &ListMeta{Total: total, Page: input.Page, PageSize: input.PageSize}
	return dtos, meta, nil
}

func (s *LoanService) findLoan(ctx context.Context, loanID uuid.UUID) (*lending.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, lending.ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	return loan, nil
}

// generateLoanNumber builds the next sequential number for the current year.
// Format: LOAN<year><seq, 4 digits>.
func (s *LoanService) generateLoanNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("LOAN%d", time.Now().Year())
	count, err := s.loanRepo.CountByNumberPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func (s *LoanService) publishEvents(ctx context.Context, loan *lending.Loan) {
	events := loan.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish loan events",
			zap.String("loan_number", loan.LoanNumber),
			zap.Error(err))
	}
	loan.ClearDomainEvents()
}

func (s *LoanService) audit(ctx context.Context, actorID uuid.UUID, action lending.AuditAction, entityID uuid.UUID, values map[string]any) {
	payload, err := json.Marshal(values)
	if err != nil {
		s.logger.Warn("failed to marshal audit payload", zap.Error(err))
		return
	}
	entry, err := lending.NewAuditEntry(actorID, action, "Loan", entityID, string(payload))
	if err != nil {
		s.logger.Warn("failed to build audit entry", zap.Error(err))
		return
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append audit entry", zap.Error(err))
	}
}
