package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StaffRole string

const (
	StaffRoleAdmin   StaffRole = "admin"
	StaffRoleManager StaffRole = "manager"
	StaffRoleStaff   StaffRole = "staff"
)

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "Completed"
	SaleStatusPending   SaleStatus = "Pending"
	SaleStatusCancelled SaleStatus = "Cancelled"
)

type AppointmentStatus string

const (
	AppointmentConfirmed AppointmentStatus = "Confirmed"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
	AppointmentNoShow    AppointmentStatus = "NoShow"
)

type ExpenseStatus string

const (
	ExpensePending ExpenseStatus = "Pending"
	ExpensePaid    ExpenseStatus = "Paid"
	ExpenseOverdue ExpenseStatus = "Overdue"
)

type Branch struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	Phone     string    `json:"phone"`
	GSTIN     *string   `json:"gstin,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Staff struct {
	ID           uuid.UUID  `json:"id"`
	BranchID     *uuid.UUID `json:"branchId,omitempty"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         StaffRole  `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type Service struct {
	ID              uuid.UUID       `json:"id"`
	BranchID        *uuid.UUID      `json:"branchId,omitempty"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int32           `json:"durationMinutes"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	Variants        []string        `json:"variants"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type ServiceConsumable struct {
	ServiceID       uuid.UUID `json:"serviceId"`
	InventoryItemID uuid.UUID `json:"inventoryItemId"`
	Quantity        int32     `json:"quantity"`
}

type Customer struct {
	ID             uuid.UUID       `json:"id"`
	BranchID       *uuid.UUID      `json:"branchId,omitempty"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	GSTIN          *string         `json:"gstin,omitempty"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
	Visits         int32           `json:"visits"`
	LoyaltyPoints  int64           `json:"loyaltyPoints"`
	MembershipTier string          `json:"membershipTier"`
	LastVisit      *time.Time      `json:"lastVisit,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type CustomerActivity struct {
	ID          uuid.UUID           `json:"id"`
	CustomerID  uuid.UUID           `json:"customerId"`
	Kind        string              `json:"kind"`
	Description string              `json:"description"`
	Amount      decimal.NullDecimal `json:"amount"`
	Reference   *string             `json:"reference,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type Coupon struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	MinAmount   decimal.Decimal `json:"minAmount"`
	MaxDiscount decimal.Decimal `json:"maxDiscount"`
	UsageLimit  int32           `json:"usageLimit"`
	UsedCount   int32           `json:"usedCount"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Sale struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	BranchID       *uuid.UUID      `json:"branchId,omitempty"`
	CustomerID     *uuid.UUID      `json:"customerId,omitempty"`
	StaffID        *uuid.UUID      `json:"staffId,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	CGST           decimal.Decimal `json:"cgst"`
	SGST           decimal.Decimal `json:"sgst"`
	IGST           decimal.Decimal `json:"igst"`
	CouponCode     *string         `json:"couponCode,omitempty"`
	CouponDiscount decimal.Decimal `json:"couponDiscount"`
	ManualDiscount decimal.Decimal `json:"manualDiscount"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  string          `json:"paymentMethod"`
	Status         SaleStatus      `json:"status"`
	CancelReason   *string         `json:"cancelReason,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	CancelledAt    *time.Time      `json:"cancelledAt,omitempty"`
}

type SaleItem struct {
	ID          uuid.UUID       `json:"id"`
	SaleID      uuid.UUID       `json:"saleId"`
	ServiceID   uuid.UUID       `json:"serviceId"`
	ServiceName string          `json:"serviceName"`
	Variant     string          `json:"variant"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	Quantity    int32           `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
}

type InventoryItem struct {
	ID           uuid.UUID       `json:"id"`
	BranchID     *uuid.UUID      `json:"branchId,omitempty"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	Supplier     string          `json:"supplier"`
	CurrentStock int32           `json:"currentStock"`
	MinStock     int32           `json:"minStock"`
	MaxStock     int32           `json:"maxStock"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type Appointment struct {
	ID              uuid.UUID         `json:"id"`
	BranchID        *uuid.UUID        `json:"branchId,omitempty"`
	CustomerID      uuid.UUID         `json:"customerId"`
	ServiceID       uuid.UUID         `json:"serviceId"`
	StaffID         *uuid.UUID        `json:"staffId,omitempty"`
	ScheduledAt     time.Time         `json:"scheduledAt"`
	DurationMinutes int32             `json:"durationMinutes"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"createdAt"`
}

type Notification struct {
	ID            uuid.UUID  `json:"id"`
	BranchID      *uuid.UUID `json:"branchId,omitempty"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	Kind          string     `json:"type"`
	Priority      string     `json:"priority"`
	RelatedEntity *string    `json:"relatedEntity,omitempty"`
	EntityID      *uuid.UUID `json:"entityId,omitempty"`
	Read          bool       `json:"read"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type DomainEvent struct {
	ID          uuid.UUID `json:"id"`
	Topic       string    `json:"topic"`
	AggregateID uuid.UUID `json:"aggregateId"`
	Payload     []byte    `json:"payload"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type WebhookEndpoint struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	Topics    []string  `json:"topics"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Settings struct {
	BusinessName      string          `json:"businessName"`
	Currency          string          `json:"currency"`
	GSTRate           decimal.Decimal `json:"gstRate"`
	CGSTRate          decimal.Decimal `json:"cgstRate"`
	SGSTRate          decimal.Decimal `json:"sgstRate"`
	IGSTRate          decimal.Decimal `json:"igstRate"`
	SplitTax          bool            `json:"splitTax"`
	GSTIN             *string         `json:"gstin,omitempty"`
	LoyaltyPointsRate decimal.Decimal `json:"loyaltyPointsRate"`
	PaymentMethods    []string        `json:"paymentMethods"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type Expense struct {
	ID              uuid.UUID       `json:"id"`
	BranchID        *uuid.UUID      `json:"branchId,omitempty"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	SpentOn         time.Time       `json:"date"`
	PaymentMethod   string          `json:"paymentMethod"`
	Vendor          string          `json:"vendor"`
	Status          ExpenseStatus   `json:"status"`
	RecurringPeriod *string         `json:"recurringPeriod,omitempty"`
	CreatedBy       *uuid.UUID      `json:"createdBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type AuditLog struct {
	ID           uuid.UUID  `json:"id"`
	StaffID      *uuid.UUID `json:"staffId,omitempty"`
	Role         string     `json:"role"`
	BranchID     *uuid.UUID `json:"branchId,omitempty"`
	Action       string     `json:"action"`
	ResourceType string     `json:"resourceType"`
	ResourceID   string     `json:"resourceId"`
	Method       string     `json:"method"`
	Path         string     `json:"path"`
	StatusCode   int32      `json:"statusCode"`
	IP           string     `json:"ip"`
	RequestID    string     `json:"requestId"`
	CreatedAt    time.Time  `json:"createdAt"`
}
