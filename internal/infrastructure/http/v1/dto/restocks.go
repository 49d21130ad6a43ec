package dto

import (
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/restocks"
)

// CreateRestockRequest represents a request to record a purchase.
type CreateRestockRequest struct {
	User         id.ID                `json:"user,omitempty"`
	Supplier     *id.ID               `json:"supplier,omitempty"`
	SupplierName string               `json:"supplierName,omitempty"`
	Items        []RestockLineRequest `json:"items" binding:"required,min=1,dive"`
	Tax          *types.Money         `json:"tax,omitempty" binding:"omitempty,money"`
	Note         string               `json:"note,omitempty"`
	Date         string               `json:"date,omitempty"`

	PaymentFields
	StatusOverrideFields
}

// RestockLineRequest is one purchased line. Exactly one of itemId and
// newItem is expected.
type RestockLineRequest struct {
	ItemID     id.ID           `json:"itemId,omitempty"`
	NewItem    *NewItemRequest `json:"newItem,omitempty"`
	Mode       string          `json:"mode,omitempty" binding:"omitempty,oneof=EACH METER each meter"`
	Quantity   int             `json:"quantity,omitempty" binding:"gte=0"`
	Serials    []string        `json:"serials,omitempty"`
	AutoSerial bool            `json:"autoSerial,omitempty"`
	NewRolls   []types.Length  `json:"newRolls,omitempty" binding:"omitempty,dive,length"`
	UnitCost   types.Money     `json:"unitCost" binding:"money"`
}

// NewItemRequest creates the catalog item together with the restock.
// A stockUnit of "m" makes a meter item.
type NewItemRequest struct {
	Name           string       `json:"name" binding:"required"`
	Category       string       `json:"category,omitempty"`
	StockUnit      *string      `json:"stockUnit,omitempty"`
	PriceRetail    *types.Money `json:"priceRetail,omitempty" binding:"omitempty,money"`
	PriceWholesale *types.Money `json:"priceWholesale,omitempty" binding:"omitempty,money"`
	TrackUnits     *bool        `json:"trackUnits,omitempty"`
}

// ToInput converts the request to a domain input.
func (r *CreateRestockRequest) ToInput() (restocks.RestockInput, error) {
	payment, err := r.Payment()
	if err != nil {
		return restocks.RestockInput{}, err
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return restocks.RestockInput{}, err
	}

	in := restocks.RestockInput{
		UserID: r.User,
		Supplier: restocks.SupplierInput{
			ID:   r.Supplier,
			Name: strings.TrimSpace(r.SupplierName),
		},
		Lines:    make([]restocks.LineInput, 0, len(r.Items)),
		Tax:      types.Zero(),
		Payment:  payment,
		Override: r.Override(),
		Note:     strings.TrimSpace(r.Note),
		Date:     date,
	}
	if r.Tax != nil {
		in.Tax = *r.Tax
	}

	for i, l := range r.Items {
		if id.Valid(l.ItemID) == (l.NewItem != nil) {
			return restocks.RestockInput{}, apperror.NewInvalidRequest("Each line needs exactly one of itemId and newItem").
				WithDetail("line", i)
		}
		line := restocks.LineInput{
			ItemID:     l.ItemID,
			Mode:       entity.LineMode(strings.ToUpper(l.Mode)),
			Quantity:   l.Quantity,
			Serials:    l.Serials,
			AutoSerial: l.AutoSerial,
			NewRolls:   l.NewRolls,
			UnitCost:   l.UnitCost,
		}
		if l.NewItem != nil {
			line.NewItem = l.NewItem.toInput()
		}
		in.Lines = append(in.Lines, line)
	}
	return in, nil
}

func (n *NewItemRequest) toInput() *restocks.NewItemInput {
	unit := entity.StockUnitPiece
	if n.StockUnit != nil && strings.EqualFold(strings.TrimSpace(*n.StockUnit), string(entity.StockUnitMeter)) {
		unit = entity.StockUnitMeter
	}
	return &restocks.NewItemInput{
		Name:           strings.TrimSpace(n.Name),
		Category:       strings.TrimSpace(n.Category),
		StockUnit:      unit,
		PriceRetail:    n.PriceRetail,
		PriceWholesale: n.PriceWholesale,
		TrackUnits:     n.TrackUnits,
	}
}
