package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praws/backend/internal/domain/lending"
)

// LoanModel is the persistence model for the Loan aggregate root.
type LoanModel struct {
	AggregateModel
	LoanNumber           string               `gorm:"type:varchar(30);not null;uniqueIndex"`
	MemberID             uuid.UUID            `gorm:"type:uuid;not null;index"`
	MemberName           string               `gorm:"type:varchar(200);not null"`
	Principal            decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TermMonths           int                  `gorm:"not null"`
	InterestRate         decimal.Decimal      `gorm:"type:decimal(8,6);not null"`
	TotalInterest        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalAmount          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	MonthlyPayment       decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	AmountDisbursed      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PrincipalRepaid      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	InterestRepaid       decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalRepaid          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	OutstandingPrincipal decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	OutstandingInterest  decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	OutstandingBalance   decimal.Decimal      `gorm:"type:decimal(18,4);not null;index"`
	Status               lending.LoanStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Purpose              string               `gorm:"type:varchar(500)"`
	StartDate            *time.Time           `gorm:"index"`
	IsFullyReconciled    bool                 `gorm:"not null;default:false"`
	LastReconciledAt     *time.Time
	Schedule             []ScheduleEntryModel `gorm:"foreignKey:LoanID;references:ID"`
}

// TableName returns the table name for GORM
func (LoanModel) TableName() string {
	return "loans"
}

// ToDomain converts the persistence model to a domain Loan aggregate.
func (m *LoanModel) ToDomain() *lending.Loan {
	loan := &lending.Loan{
		LoanNumber:           m.LoanNumber,
		MemberID:             m.MemberID,
		MemberName:           m.MemberName,
		Principal:            m.Principal,
		TermMonths:           lending.LoanTerm(m.TermMonths),
		InterestRate:         m.InterestRate,
		TotalInterest:        m.TotalInterest,
		TotalAmount:          m.TotalAmount,
		MonthlyPayment:       m.MonthlyPayment,
		AmountDisbursed:      m.AmountDisbursed,
		PrincipalRepaid:      m.PrincipalRepaid,
		InterestRepaid:       m.InterestRepaid,
		TotalRepaid:          m.TotalRepaid,
		OutstandingPrincipal: m.OutstandingPrincipal,
		OutstandingInterest:  m.OutstandingInterest,
		OutstandingBalance:   m.OutstandingBalance,
		Status:               m.Status,
		Purpose:              m.Purpose,
		StartDate:            m.StartDate,
		IsFullyReconciled:    m.IsFullyReconciled,
		LastReconciledAt:     m.LastReconciledAt,
	}
	m.PopulateAggregateRoot(&loan.BaseAggregateRoot)
	if len(m.Schedule) > 0 {
		loan.Schedule = make([]lending.ScheduleEntry, len(m.Schedule))
		for i, entry := range m.Schedule {
			loan.Schedule[i] = *entry.ToDomain()
		}
		loan.SortSchedule()
	}
	return loan
}

// FromDomain populates the persistence model from a domain Loan aggregate.
func (m *LoanModel) FromDomain(loan *lending.Loan) {
	m.FromDomainAggregateRoot(loan.BaseAggregateRoot)
	m.LoanNumber = loan.LoanNumber
	m.MemberID = loan.MemberID
	m.MemberName = loan.MemberName
	m.Principal = loan.Principal
	m.TermMonths = loan.TermMonths.Months()
	m.InterestRate = loan.InterestRate
	m.TotalInterest = loan.TotalInterest
	m.TotalAmount = loan.TotalAmount
	m.MonthlyPayment = loan.MonthlyPayment
	m.AmountDisbursed = loan.AmountDisbursed
	m.PrincipalRepaid = loan.PrincipalRepaid
	m.InterestRepaid = loan.InterestRepaid
	m.TotalRepaid = loan.TotalRepaid
	m.OutstandingPrincipal = loan.OutstandingPrincipal
	m.OutstandingInterest = loan.OutstandingInterest
	m.OutstandingBalance = loan.OutstandingBalance
	m.Status = loan.Status
	m.Purpose = loan.Purpose
	m.StartDate = loan.StartDate
	m.IsFullyReconciled = loan.IsFullyReconciled
	m.LastReconciledAt = loan.LastReconciledAt
	m.Schedule = make([]ScheduleEntryModel, len(loan.Schedule))
	for i, entry := range loan.Schedule {
		m.Schedule[i] = *ScheduleEntryModelFromDomain(loan.ID, &entry)
	}
}

// LoanModelFromDomain creates a new persistence model from a domain Loan.
func LoanModelFromDomain(loan *lending.Loan) *LoanModel {
	m := &LoanModel{}
	m.FromDomain(loan)
	return m
}

// ScheduleEntryModel is the persistence model for one loan installment.
type ScheduleEntryModel struct {
	ID                uuid.UUID              `gorm:"type:uuid;primary_key"`
	LoanID            uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_loan_installment,priority:1"`
	InstallmentNumber int                    `gorm:"not null;uniqueIndex:idx_schedule_loan_installment,priority:2"`
	DueDate           time.Time              `gorm:"not null;index"`
	PrincipalAmount   decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	InterestAmount    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	TotalAmount       decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Status            lending.ScheduleStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidAmount        decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidPrincipal     decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidInterest      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidDate          *time.Time
	IsReconciled      bool                   `gorm:"not null;default:false"`
	ReconciledAt      *time.Time
}

// TableName returns the table name for GORM
func (ScheduleEntryModel) TableName() string {
	return "loan_schedule_entries"
}

// ToDomain converts the persistence model to a domain ScheduleEntry.
func (m *ScheduleEntryModel) ToDomain() *lending.ScheduleEntry {
	return &lending.ScheduleEntry{
		ID:                m.ID,
		LoanID:            m.LoanID,
		InstallmentNumber: m.InstallmentNumber,
		DueDate:           m.DueDate,
		PrincipalAmount:   m.PrincipalAmount,
		InterestAmount:    m.InterestAmount,
		TotalAmount:       m.TotalAmount,
		Status:            m.Status,
		PaidAmount:        m.PaidAmount,
		PaidPrincipal:     m.PaidPrincipal,
		PaidInterest:      m.PaidInterest,
		PaidDate:          m.PaidDate,
		IsReconciled:      m.IsReconciled,
		ReconciledAt:      m.ReconciledAt,
	}
}

// ScheduleEntryModelFromDomain creates a persistence model from a domain
// ScheduleEntry. The loan ID is passed in so the entry stays attached even
// when the domain entry was generated before the loan was first saved.
func ScheduleEntryModelFromDomain(loanID uuid.UUID, entry *lending.ScheduleEntry) *ScheduleEntryModel {
	return &ScheduleEntryModel{
		ID:                entry.ID,
		LoanID:            loanID,
		InstallmentNumber: entry.InstallmentNumber,
		DueDate:           entry.DueDate,
		PrincipalAmount:   entry.PrincipalAmount,
		InterestAmount:    entry.InterestAmount,
		TotalAmount:       entry.TotalAmount,
		Status:            entry.Status,
		PaidAmount:        entry.PaidAmount,
		PaidPrincipal:     entry.PaidPrincipal,
		PaidInterest:      entry.PaidInterest,
		PaidDate:          entry.PaidDate,
		IsReconciled:      entry.IsReconciled,
		ReconciledAt:      entry.ReconciledAt,
	}
}

// PaymentModel is the persistence model for payments. Loan repayment
// allocations are stored as nullable columns; contribution payments leave
// them NULL.
type PaymentModel struct {
	BaseModel
	ReceiptNumber   string              `gorm:"type:varchar(30);not null;uniqueIndex"`
	MemberID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	PaymentType     lending.PaymentType `gorm:"type:varchar(30);not null;index"`
	Amount          decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PaymentDate     time.Time           `gorm:"not null;index"`
	Description     string              `gorm:"type:varchar(500)"`
	LoanID          *uuid.UUID          `gorm:"type:uuid;index"`
	PrincipalAmount *decimal.Decimal    `gorm:"type:decimal(18,4)"`
	InterestAmount  *decimal.Decimal    `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *lending.Payment {
	payment := &lending.Payment{
		BaseEntity:    m.BaseModel.ToDomain(),
		ReceiptNumber: m.ReceiptNumber,
		MemberID:      m.MemberID,
		PaymentType:   m.PaymentType,
		Amount:        m.Amount,
		PaymentDate:   m.PaymentDate,
		Description:   m.Description,
	}
	if m.LoanID != nil {
		allocation := &lending.RepaymentAllocation{LoanID: *m.LoanID}
		if m.PrincipalAmount != nil {
			allocation.PrincipalAmount = *m.PrincipalAmount
		}
		if m.InterestAmount != nil {
			allocation.InterestAmount = *m.InterestAmount
		}
		payment.Allocation = allocation
	}
	return payment
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(payment *lending.Payment) {
	m.FromDomainBaseEntity(payment.BaseEntity)
	m.ReceiptNumber = payment.ReceiptNumber
	m.MemberID = payment.MemberID
	m.PaymentType = payment.PaymentType
	m.Amount = payment.Amount
	m.PaymentDate = payment.PaymentDate
	m.Description = payment.Description
	if payment.Allocation != nil {
		loanID := payment.Allocation.LoanID
		principal := payment.Allocation.PrincipalAmount
		interest := payment.Allocation.InterestAmount
		m.LoanID = &loanID
		m.PrincipalAmount = &principal
		m.InterestAmount = &interest
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(payment *lending.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(payment)
	return m
}

// ReconciliationRecordModel is the persistence model for the append-only
// reconciliation audit trail.
type ReconciliationRecordModel struct {
	ID                 uuid.UUID                    `gorm:"type:uuid;primary_key"`
	ReconciliationType lending.ReconciliationType   `gorm:"type:varchar(30);not null;index"`
	ReferenceNumber    string                       `gorm:"type:varchar(50);not null"`
	EntityID           uuid.UUID                    `gorm:"type:uuid;not null;index"`
	ExpectedAmount     decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	ActualAmount       decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Difference         decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Status             lending.ReconciliationStatus `gorm:"type:varchar(20);not null;index"`
	Notes              string                       `gorm:"type:text"`
	CreatedAt          time.Time                    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ReconciliationRecordModel) TableName() string {
	return "reconciliation_records"
}

// ToDomain converts the persistence model to a domain ReconciliationRecord.
func (m *ReconciliationRecordModel) ToDomain() *lending.ReconciliationRecord {
	return &lending.ReconciliationRecord{
		ID:                 m.ID,
		ReconciliationType: m.ReconciliationType,
		ReferenceNumber:    m.ReferenceNumber,
		EntityID:           m.EntityID,
		ExpectedAmount:     m.ExpectedAmount,
		ActualAmount:       m.ActualAmount,
		Difference:         m.Difference,
		Status:             m.Status,
		Notes:              m.Notes,
		CreatedAt:          m.CreatedAt,
	}
}

// ReconciliationRecordModelFromDomain creates a persistence model from a
// domain ReconciliationRecord.
func ReconciliationRecordModelFromDomain(record *lending.ReconciliationRecord) *ReconciliationRecordModel {
	return &ReconciliationRecordModel{
		ID:                 record.ID,
		ReconciliationType: record.ReconciliationType,
		ReferenceNumber:    record.ReferenceNumber,
		EntityID:           record.EntityID,
		ExpectedAmount:     record.ExpectedAmount,
		ActualAmount:       record.ActualAmount,
		Difference:         record.Difference,
		Status:             record.Status,
		Notes:              record.Notes,
		CreatedAt:          record.CreatedAt,
	}
}

// AuditLogModel is the persistence model for the append-only audit log.
type AuditLogModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primary_key"`
	ActorID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Action    lending.AuditAction `gorm:"type:varchar(30);not null;index"`
	Entity    string              `gorm:"type:varchar(50);not null"`
	EntityID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	NewValues string              `gorm:"type:text"`
	CreatedAt time.Time           `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain AuditEntry.
func (m *AuditLogModel) ToDomain() *lending.AuditEntry {
	return &lending.AuditEntry{
		ID:        m.ID,
		ActorID:   m.ActorID,
		Action:    m.Action,
		Entity:    m.Entity,
		EntityID:  m.EntityID,
		NewValues: m.NewValues,
		CreatedAt: m.CreatedAt,
	}
}

// AuditLogModelFromDomain creates a persistence model from a domain AuditEntry.
func AuditLogModelFromDomain(entry *lending.AuditEntry) *AuditLogModel {
	return &AuditLogModel{
		ID:        entry.ID,
		ActorID:   entry.ActorID,
		Action:    entry.Action,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		NewValues: entry.NewValues,
		CreatedAt: entry.CreatedAt,
	}
}
