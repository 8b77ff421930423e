package lending

import "github.com/praws/backend/internal/domain/shared"

// Lending-specific domain errors
var (
	ErrInvalidTerm       = shared.NewDomainError("INVALID_TERM", "Invalid loan term. Only 3, 6, or 12 months are allowed")
	ErrInvalidPrincipal  = shared.NewDomainError("INVALID_PRINCIPAL", "Loan principal must be positive")
	ErrInvalidAmount     = shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	ErrLoanNotFound      = shared.NewDomainError("LOAN_NOT_FOUND", "Loan not found")
	ErrNoPendingSchedule = shared.NewDomainError("NO_PENDING_SCHEDULE", "No pending payment schedule found for loan")
)
