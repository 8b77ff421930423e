package lending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/domain/shared"
)

// DefaultPerLoanTimeout bounds how long a single loan reconciliation may take
// during a batch run.
const DefaultPerLoanTimeout = 10 * time.Second

// ReconciliationService verifies that the repayments recorded for each loan
// add up to what the pricing rules say should have been collected.
type ReconciliationService struct {
	loanRepo       lending.LoanRepository
	paymentRepo    lending.PaymentRepository
	recordRepo     lending.ReconciliationRecordRepository
	auditRepo      lending.AuditLogRepository
	events         shared.EventPublisher
	logger         *zap.Logger
	perLoanTimeout time.Duration
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	loanRepo lending.LoanRepository,
	paymentRepo lending.PaymentRepository,
	recordRepo lending.ReconciliationRecordRepository,
	auditRepo lending.AuditLogRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
	perLoanTimeout time.Duration,
) *ReconciliationService {
	if perLoanTimeout <= 0 {
		perLoanTimeout = DefaultPerLoanTimeout
	}
	return &ReconciliationService{
		loanRepo:       loanRepo,
		paymentRepo:    paymentRepo,
		recordRepo:     recordRepo,
		auditRepo:      auditRepo,
		events:         events,
		logger:         logger,
		perLoanTimeout: perLoanTimeout,
	}
}

// ReconcileLoan reconciles a single loan: expected totals are recomputed from
// the pricing rules, actual totals are summed from the recorded repayment
// allocations. A discrepancy appends an audit record; it is a recorded
// outcome, not an error.
func (s *ReconciliationService) ReconcileLoan(ctx context.Context, loanID uuid.UUID) (*ReconciliationResultDTO, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, lending.ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}

	rec, err := s.reconcile(ctx, loan)
	if err != nil {
		return nil, err
	}
	dto := toReconciliationResultDTO(rec)
	return &dto, nil
}

// ReconcileAllLoans runs reconciliation across every ACTIVE and COMPLETED
// loan. A failure on one loan is logged and skipped; it never aborts the
// batch. Each loan gets its own deadline.
func (s *ReconciliationService) ReconcileAllLoans(ctx context.Context) (*BatchReconciliationDTO, error) {
	startedAt := time.Now()

	statuses := []lending.LoanStatus{lending.LoanStatusActive, lending.LoanStatusCompleted}
	loans, err := s.loanRepo.FindByStatuses(ctx, statuses, lending.LoanFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list loans for reconciliation: %w", err)
	}

	batch := &BatchReconciliationDTO{
		StartedAt: startedAt,
		Results:   make([]ReconciliationResultDTO, 0, len(loans)),
	}

	for i := range loans {
		loan := &loans[i]
		rec, err := s.reconcileWithTimeout(ctx, loan)
		if err != nil {
			batch.FailedCount++
			s.logger.Error("loan reconciliation failed",
				zap.String("loan_number", loan.LoanNumber),
				zap.Error(err))
			continue
		}

		batch.ProcessedCount++
		switch rec.Status {
		case lending.ReconciliationStatusReconciled:
			batch.ReconciledCount++
		case lending.ReconciliationStatusDiscrepancy:
			batch.DiscrepancyCount++
		}
		batch.Results = append(batch.Results, toReconciliationResultDTO(rec))
	}

	batch.FinishedAt = time.Now()

	s.logger.Info("reconciliation run finished",
		zap.Int("processed", batch.ProcessedCount),
		zap.Int("reconciled", batch.ReconciledCount),
		zap.Int("discrepancies", batch.DiscrepancyCount),
		zap.Int("failed", batch.FailedCount),
		zap.Duration("elapsed", batch.FinishedAt.Sub(batch.StartedAt)))

	return batch, nil
}

// ListRecords lists the discrepancy audit trail, newest first
func (s *ReconciliationService) ListRecords(ctx context.Context, page, pageSize int) ([]ReconciliationRecordDTO, *ListMeta, error) {
	records, total, err := s.recordRepo.FindAll(ctx, page, pageSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list reconciliation records: %w", err)
	}
	dtos := make([]ReconciliationRecordDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, toReconciliationRecordDTO(&records[i]))
	}
	meta := &ListMeta{Total: total, Page: page, PageSize: pageSize}
	return dtos, meta, nil
}

func (s *ReconciliationService) reconcileWithTimeout(ctx context.Context, loan *lending.Loan) (*lending.LoanReconciliation, error) {
	loanCtx, cancel := context.WithTimeout(ctx, s.perLoanTimeout)
	defer cancel()
	return s.reconcile(loanCtx, loan)
}

func (s *ReconciliationService) reconcile(ctx context.Context, loan *lending.Loan) (*lending.LoanReconciliation, error) {
	totals, err := s.paymentRepo.SumRepaymentAllocations(ctx, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum repayment allocations: %w", err)
	}

	rec, err := lending.ReconcileLoanTotals(loan, totals.Principal, totals.Interest)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if rec.Status == lending.ReconciliationStatusDiscrepancy {
		record := lending.NewDiscrepancyRecord(rec)
		if err := s.recordRepo.Append(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to append discrepancy record: %w", err)
		}
		s.logger.Warn("loan payment discrepancy detected",
			zap.String("loan_number", rec.LoanNumber),
			zap.String("expected", rec.ExpectedTotal.StringFixed(2)),
			zap.String("actual", rec.ActualTotal.StringFixed(2)),
			zap.String("difference", rec.Difference.StringFixed(2)))
	}

	// The reconciliation outcome is stamped on the loan either way
	loan.MarkReconciled(rec.Status == lending.ReconciliationStatusReconciled, now)
	if err := s.loanRepo.Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	s.publish(ctx, lending.NewLoanReconciledEvent(loan, rec.ExpectedTotal, rec.ActualTotal, rec.Difference, rec.Status))
	s.audit(ctx, loan.ID, map[string]any{
		"loan_number": rec.LoanNumber,
		"expected":    rec.ExpectedTotal.StringFixed(2),
		"actual":      rec.ActualTotal.StringFixed(2),
		"difference":  rec.Difference.StringFixed(2),
		"status":      rec.Status.String(),
	})

	return rec, nil
}

func (s *ReconciliationService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish reconciliation events", zap.Error(err))
	}
}

func (s *ReconciliationService) audit(ctx context.Context, loanID uuid.UUID, values map[string]any) {
	payload, err := json.Marshal(values)
	if err != nil {
		s.logger.Warn("failed to marshal audit payload", zap.Error(err))
		return
	}
	entry, err := lending.NewAuditEntry(uuid.Nil, lending.AuditActionReconcile, "Loan", loanID, string(payload))
	if err != nil {
		s.logger.Warn("failed to build audit entry", zap.Error(err))
		return
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append audit entry", zap.Error(err))
	}
}
