package export

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/restocks"
	"retailcore/internal/domain/sales"
)

// PDFContentType is the media type of ReceiptPDF output.
const PDFContentType = "application/pdf"

var (
	colorAccent = &props.Color{Red: 40, Green: 60, Blue: 90}
	colorMuted  = &props.Color{Red: 110, Green: 110, Blue: 110}
)

// Receipt is the printable form of a sale or restock.
type Receipt struct {
	Title       string
	Number      string
	Date        time.Time
	Party       string
	Lines       []ReceiptLine
	Subtotal    types.Money
	Tax         types.Money
	Total       types.Money
	Paid        types.Money
	Outstanding types.Money
	Status      string
	Note        string
}

// ReceiptLine is one printed line.
type ReceiptLine struct {
	Description string
	Quantity    string
	Price       types.Money
	Amount      types.Money
}

// SaleReceipt builds the printable form of a sale.
func SaleReceipt(v *sales.SaleView) Receipt {
	r := Receipt{
		Title:       "Sale receipt",
		Number:      v.Number,
		Date:        v.Date,
		Party:       "Walk-in customer",
		Subtotal:    v.Total,
		Tax:         types.Zero(),
		Total:       v.Total,
		Paid:        v.Paid,
		Outstanding: v.Outstanding,
		Status:      v.StatusLabel,
		Note:        entity.StrVal(v.Note),
	}
	if v.Customer != nil {
		r.Party = v.Customer.Name
	}
	for _, l := range v.Lines {
		r.Lines = append(r.Lines, ReceiptLine{
			Description: describe(l.ItemID, l.Mode, len(l.Units)),
			Quantity:    quantity(l.Mode, l.Quantity, l.LengthM),
			Price:       l.PriceEach,
			Amount:      types.RoundMoney(l.Amount()),
		})
	}
	return r
}

// RestockReceipt builds the printable form of a restock.
func RestockReceipt(v *restocks.RestockView) Receipt {
	r := Receipt{
		Title:       "Restock receipt",
		Number:      v.Number,
		Date:        v.EffectiveDate(),
		Party:       "Unknown supplier",
		Subtotal:    v.Subtotal,
		Tax:         v.Tax,
		Total:       v.Total,
		Paid:        v.Paid,
		Outstanding: v.Outstanding,
		Status:      v.StatusLabel,
		Note:        entity.StrVal(v.Note),
	}
	if v.Supplier != nil {
		r.Party = v.Supplier.Name
	}
	for _, l := range v.Lines {
		amount := l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
		if l.Mode == entity.ModeMeter && l.LengthM != nil {
			amount = l.UnitCost.Mul(*l.LengthM)
		}
		r.Lines = append(r.Lines, ReceiptLine{
			Description: describe(l.ItemID, l.Mode, 0),
			Quantity:    quantity(l.Mode, l.Quantity, l.LengthM),
			Price:       l.UnitCost,
			Amount:      types.RoundMoney(amount),
		})
	}
	return r
}

func describe(itemID id.ID, mode entity.LineMode, units int) string {
	if units > 0 {
		return fmt.Sprintf("Item #%d (%d units)", itemID, units)
	}
	if mode == entity.ModeMeter {
		return fmt.Sprintf("Item #%d (cut)", itemID)
	}
	return fmt.Sprintf("Item #%d", itemID)
}

func quantity(mode entity.LineMode, qty int, length *types.Length) string {
	if mode == entity.ModeMeter && length != nil {
		return length.StringFixed(3) + " m"
	}
	return fmt.Sprint(qty)
}

// ReceiptPDF renders r as an A4 document.
func ReceiptPDF(r Receipt) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(12).WithBottomMargin(12).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(r.Title+" "+r.Number, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorAccent, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, l := range r.Lines {
		m.AddRows(lineRow(l))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorAccent, Thickness: 0.3}))
	m.AddRows(totalsRows(r)...)
	if r.Note != "" {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("Note: "+r.Note, props.Text{Size: 8, Top: 3, Color: colorMuted}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(r Receipt) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(r.Title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorAccent, Top: 1}),
			text.New(r.Party, props.Text{Size: 9, Top: 9, Color: colorMuted}),
		),
		col.New(5).Add(
			text.New(r.Number, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1}),
			text.New(r.Date.Format("2006-01-02"), props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorMuted}),
			text.New(r.Status, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 13}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: a, Top: 2}))
	}
	return row.New(8).Add(
		h("Description", 6, align.Left),
		h("Qty", 2, align.Center),
		h("Price", 2, align.Right),
		h("Amount", 2, align.Right),
	)
}

func lineRow(l ReceiptLine) core.Row {
	return row.New(7).Add(
		col.New(6).Add(text.New(l.Description, props.Text{Size: 8, Top: 1})),
		col.New(2).Add(text.New(l.Quantity, props.Text{Size: 8, Align: align.Center, Top: 1})),
		col.New(2).Add(text.New(l.Price.StringFixed(2), props.Text{Size: 8, Align: align.Right, Top: 1})),
		col.New(2).Add(text.New(l.Amount.StringFixed(2), props.Text{Size: 8, Align: align.Right, Top: 1})),
	)
}

func totalsRows(r Receipt) []core.Row {
	pair := func(label string, v types.Money, bold bool) core.Row {
		style := fontstyle.Normal
		if bold {
			style = fontstyle.Bold
		}
		return row.New(6).Add(
			col.New(8).Add(text.New(label, props.Text{Size: 9, Align: align.Right, Style: style, Top: 1})),
			col.New(4).Add(text.New(v.StringFixed(2), props.Text{Size: 9, Align: align.Right, Style: style, Top: 1})),
		)
	}
	rows := []core.Row{pair("Subtotal", r.Subtotal, false)}
	if !r.Tax.IsZero() {
		rows = append(rows, pair("Tax", r.Tax, false))
	}
	return append(rows,
		pair("Total", r.Total, true),
		pair("Paid", r.Paid, false),
		pair("Outstanding", r.Outstanding, true),
	)
}
