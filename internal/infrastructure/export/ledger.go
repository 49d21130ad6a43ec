// Package export renders cashbox ledgers as spreadsheets and documents as
// printable receipts.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/types"
)

const ledgerSheet = "Ledger"

// XLSXContentType is the media type of LedgerXLSX output.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ledgerHeader = []any{"Date", "Kind", "Direction", "Amount", "Signed", "Reference", "Note"}

// LedgerXLSX writes the entries of one cashbox as a workbook, one row per
// entry in the given order, followed by a balance row.
func LedgerXLSX(w io.Writer, cb entity.Cashbox, entries []entity.CashboxEntry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Cashbox %s", cb.Code),
		Subject: cb.Label,
	}); err != nil {
		return fmt.Errorf("set doc props: %w", err)
	}

	if err := f.SetSheetRow(ledgerSheet, "A1", &ledgerHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(ledgerSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	balance := types.Zero()
	for i, e := range entries {
		balance = balance.Add(e.Signed())
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		amount, _ := e.Amount.Float64()
		signed, _ := e.Signed().Float64()
		row := []any{
			e.OccurredAt.Format("2006-01-02 15:04"),
			string(e.Kind),
			string(e.Direction),
			amount,
			signed,
			reference(e),
			entity.StrVal(e.Note),
		}
		if err := f.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return fmt.Errorf("write entry %d: %w", e.ID, err)
		}
	}

	total, _ := balance.Float64()
	footer := []any{"Balance", nil, nil, nil, total}
	cell, err := excelize.CoordinatesToCellName(1, len(entries)+3)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(ledgerSheet, cell, &footer); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func reference(e entity.CashboxEntry) string {
	ref := entity.StrVal(e.ReferenceType)
	if e.ReferenceID != nil {
		return fmt.Sprintf("%s #%d", ref, *e.ReferenceID)
	}
	return ref
}
