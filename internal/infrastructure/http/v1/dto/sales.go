package dto

import (
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/pricing"
	"retailcore/internal/domain/sales"
)

// --- Request DTOs ---

// CreateSaleRequest represents a request to create a sale.
type CreateSaleRequest struct {
	User          id.ID             `json:"user,omitempty"`
	Customer      *id.ID            `json:"customer,omitempty"`
	CustomerName  string            `json:"customerName,omitempty"`
	CustomerPhone string            `json:"customerPhone,omitempty"`
	Items         []SaleLineRequest `json:"items" binding:"required,min=1,dive"`
	ReceiptType   string            `json:"receiptType,omitempty" binding:"omitempty,oneof=simple detailed"`
	Note          string            `json:"note,omitempty"`
	Date          string            `json:"date,omitempty"`

	PaymentFields
	StatusOverrideFields
}

// SaleLineRequest represents one sold line. item is accepted as an alias
// of itemId.
type SaleLineRequest struct {
	ItemID           id.ID         `json:"itemId"`
	Item             id.ID         `json:"item,omitempty"`
	Mode             string        `json:"mode,omitempty" binding:"omitempty,oneof=EACH METER each meter"`
	Quantity         int           `json:"quantity,omitempty" binding:"gte=0"`
	InventoryUnitIDs []id.ID       `json:"inventoryUnitIds,omitempty"`
	LengthMeters     *types.Length `json:"lengthMeters,omitempty" binding:"omitempty,length"`
	RollID           *id.ID        `json:"rollId,omitempty"`
	PriceTier        string        `json:"priceTier,omitempty" binding:"omitempty,oneof=retail wholesale"`
	UnitPrice        *types.Money  `json:"unitPrice,omitempty" binding:"omitempty,money"`
}

// PaymentFields is the upfront payment embedded in document requests.
// amountPaidNow and paid are synonyms.
type PaymentFields struct {
	AmountPaidNow *types.Money `json:"amountPaidNow,omitempty" binding:"omitempty,money"`
	Paid          *types.Money `json:"paid,omitempty" binding:"omitempty,money"`
	PayMethod     string       `json:"payMethod,omitempty"`
	PaymentNote   string       `json:"paymentNote,omitempty"`
	PaymentDate   string       `json:"paymentDate,omitempty"`
	CashboxRef
}

// Payment converts the fields to a domain payment; a zero amount means
// nothing is paid.
func (f PaymentFields) Payment() (cashbox.PaymentInput, error) {
	amount := types.Zero()
	switch {
	case f.AmountPaidNow != nil:
		amount = *f.AmountPaidNow
	case f.Paid != nil:
		amount = *f.Paid
	}
	if amount.IsNegative() {
		return cashbox.PaymentInput{}, apperror.NewInvalidRequest("Paid amount cannot be negative")
	}

	sel, err := f.Selector()
	if err != nil {
		return cashbox.PaymentInput{}, err
	}
	date, err := ParseDate(f.PaymentDate)
	if err != nil {
		return cashbox.PaymentInput{}, err
	}
	return cashbox.PaymentInput{
		Amount:  amount,
		Cashbox: sel,
		Note:    strings.TrimSpace(f.PaymentNote),
		Method:  strings.TrimSpace(f.PayMethod),
		Date:    date,
	}, nil
}

// ToInput converts the request to a domain input.
func (r *CreateSaleRequest) ToInput() (sales.SaleInput, error) {
	payment, err := r.Payment()
	if err != nil {
		return sales.SaleInput{}, err
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return sales.SaleInput{}, err
	}

	in := sales.SaleInput{
		UserID: r.User,
		Customer: sales.CustomerInput{
			ID:    r.Customer,
			Name:  strings.TrimSpace(r.CustomerName),
			Phone: strings.TrimSpace(r.CustomerPhone),
		},
		Lines:       make([]sales.LineInput, 0, len(r.Items)),
		Payment:     payment,
		Override:    r.Override(),
		ReceiptType: r.ReceiptType,
		Note:        strings.TrimSpace(r.Note),
		Date:        date,
	}
	for i, l := range r.Items {
		line, lerr := l.toInput()
		if lerr != nil {
			return sales.SaleInput{}, lerr.WithDetail("line", i)
		}
		in.Lines = append(in.Lines, line)
	}
	return in, nil
}

func (l SaleLineRequest) toInput() (sales.LineInput, *apperror.AppError) {
	itemID := l.ItemID
	if !id.Valid(itemID) {
		itemID = l.Item
	}
	if !id.Valid(itemID) {
		return sales.LineInput{}, apperror.NewInvalidRequest("itemId is required")
	}

	line := sales.LineInput{
		ItemID:    itemID,
		Mode:      entity.LineMode(strings.ToUpper(l.Mode)),
		Quantity:  l.Quantity,
		UnitIDs:   l.InventoryUnitIDs,
		RollID:    l.RollID,
		Tier:      pricing.ParseTier(l.PriceTier),
		UnitPrice: l.UnitPrice,
	}
	if l.LengthMeters != nil {
		line.LengthM = *l.LengthMeters
	}
	return line, nil
}

// EditSaleRequest replaces the lines of a sale.
type EditSaleRequest struct {
	CreateSaleRequest
	EditNote string `json:"editNote,omitempty"`
}

// ToInput converts the request to a domain input.
func (r *EditSaleRequest) ToInput() (sales.EditInput, error) {
	in, err := r.CreateSaleRequest.ToInput()
	if err != nil {
		return sales.EditInput{}, err
	}
	return sales.EditInput{SaleInput: in, EditNote: strings.TrimSpace(r.EditNote)}, nil
}
