// Package reports provides read-only views over sales, restocks and
// supplier debt.
package reports

import (
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// --- Unified receipts ---

// Mode tells whether a receipt moved goods out (sale) or in (restock).
type Mode string

const (
	ModeOut Mode = "OUT"
	ModeIn  Mode = "IN"
)

// ReceiptFilter narrows the unified receipts list.
type ReceiptFilter struct {
	// Mode limits the list to one side; empty means both.
	Mode     Mode
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
}

// DocumentRow is a sale or restock header with its summed payments, as read
// from storage.
type DocumentRow struct {
	ID          id.ID                `db:"id"`
	Number      string               `db:"number"`
	Date        *time.Time           `db:"date"`
	Total       types.Money          `db:"total"`
	Paid        types.Money          `db:"paid"`
	Status      entity.ReceiptStatus `db:"status"`
	Note        *string              `db:"note"`
	ReceiptType string               `db:"receipt_type"`
	UserID      *id.ID               `db:"user_id"`
	PartyID     *id.ID               `db:"party_id"`
	PartyName   *string              `db:"party_name"`
	// Cashboxes are the distinct cashbox codes the document's payments used.
	Cashboxes []string `db:"cashboxes"`
}

// Party is the counterparty of a receipt.
type Party struct {
	ID   id.ID  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Receipt is one row of the unified receipts list.
type Receipt struct {
	// Ref is OUT-<id> for sales and IN-<id> for restocks.
	Ref         string               `json:"id"`
	RawID       id.ID                `json:"rawId"`
	Number      string               `json:"number"`
	Mode        Mode                 `json:"mode"`
	Type        string               `json:"type"`
	Date        *time.Time           `json:"date"`
	Total       types.Money          `json:"total"`
	Paid        types.Money          `json:"paid"`
	Outstanding types.Money          `json:"outstanding"`
	Status      string               `json:"status"`
	StatusCode  entity.ReceiptStatus `json:"statusCode"`
	UserID      *id.ID               `json:"userId,omitempty"`
	Party       *Party               `json:"party"`
}

// --- Movements ---

// MovementFilter narrows the sales or restock movements list.
type MovementFilter struct {
	// PartyID is the customer for sales, the supplier for restocks.
	PartyID     *id.ID
	Status      entity.ReceiptStatus
	CashboxCode string
	FromDate    *time.Time
	ToDate      *time.Time
	// Search matches the counterparty name, or the document id when numeric.
	Search   string
	SearchID *id.ID
	Limit    int
}

// Movement is one row of a movements list.
type Movement struct {
	ID          id.ID                `json:"id"`
	Number      string               `json:"number"`
	Date        *time.Time           `json:"date"`
	PartyID     *id.ID               `json:"partyId,omitempty"`
	PartyName   *string              `json:"partyName,omitempty"`
	Total       types.Money          `json:"total"`
	Paid        types.Money          `json:"paid"`
	Outstanding types.Money          `json:"outstanding"`
	Note        *string              `json:"note,omitempty"`
	Status      string               `json:"status"`
	StatusCode  entity.ReceiptStatus `json:"statusCode"`
	Cashboxes   []string             `json:"cashboxes"`
	UserID      *id.ID               `json:"userId,omitempty"`
}

// --- Supplier debt ---

// DebtRow aggregates one supplier's restocks.
type DebtRow struct {
	SupplierID   *id.ID      `db:"supplier_id"`
	SupplierName *string     `db:"supplier_name"`
	RestockCount int         `db:"restock_count"`
	Total        types.Money `db:"total"`
	Paid         types.Money `db:"paid"`
}

// SupplierDebt is one line of the debt overview.
type SupplierDebt struct {
	SupplierID   *id.ID      `json:"supplierId"`
	SupplierName string      `json:"supplierName"`
	RestockCount int         `json:"restockCount"`
	Total        types.Money `json:"total"`
	Paid         types.Money `json:"paid"`
	Outstanding  types.Money `json:"outstanding"`
}

// DebtOverview lists suppliers by outstanding amount, largest first.
type DebtOverview struct {
	Suppliers        []SupplierDebt `json:"suppliers"`
	TotalOutstanding types.Money    `json:"totalOutstanding"`
}

// RestockBalanceRow is a restock with its summed payments.
type RestockBalanceRow struct {
	entity.Restock
	Paid types.Money `db:"paid"`
}

// RestockDebt is one restock in the debt detail.
type RestockDebt struct {
	ID           id.ID                `json:"id"`
	Number       string               `json:"number"`
	Date         time.Time            `json:"date"`
	Total        types.Money          `json:"total"`
	Paid         types.Money          `json:"paid"`
	Outstanding  types.Money          `json:"outstanding"`
	Status       entity.ReceiptStatus `json:"status"`
	ManualStatus *entity.ManualStatus `json:"manualStatus,omitempty"`
}

// SupplierPayment is a restock payment to the supplier.
type SupplierPayment struct {
	ID          id.ID       `db:"id" json:"id"`
	RestockID   id.ID       `db:"restock_id" json:"restockId"`
	Amount      types.Money `db:"amount" json:"amount"`
	Note        *string     `db:"note" json:"note,omitempty"`
	CashboxCode *string     `db:"cashbox_code" json:"cashboxCode,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

// DebtSummary totals the detail.
type DebtSummary struct {
	Total       types.Money `json:"total"`
	Paid        types.Money `json:"paid"`
	Outstanding types.Money `json:"outstanding"`
}

// DebtDetail is the debt position of one supplier.
type DebtDetail struct {
	Supplier entity.Supplier   `json:"supplier"`
	Summary  DebtSummary       `json:"summary"`
	Restocks []RestockDebt     `json:"restocks"`
	Payments []SupplierPayment `json:"payments"`
}
