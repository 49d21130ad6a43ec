package handlers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/entity"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/infrastructure/export"
	"retailcore/internal/infrastructure/http/v1/dto"
	"retailcore/internal/infrastructure/http/v1/middleware"
)

// CashboxLedger reads and appends cashbox entries.
type CashboxLedger interface {
	Balances(ctx context.Context) ([]cashbox.Balance, error)
	AddManualEntry(ctx context.Context, actor entity.Actor, req cashbox.ManualEntryRequest) (entity.CashboxEntry, error)
	ManualEntries(ctx context.Context, f cashbox.ManualFilter) ([]cashbox.EntryView, error)
	Entries(ctx context.Context, sel cashbox.Selector, from, to *time.Time) (entity.Cashbox, []cashbox.EntryView, error)
}

// CashboxHandler handles HTTP requests for cashboxes.
type CashboxHandler struct {
	*BaseHandler
	ledger CashboxLedger
}

// NewCashboxHandler creates a new cashbox handler.
func NewCashboxHandler(base *BaseHandler, ledger CashboxLedger) *CashboxHandler {
	return &CashboxHandler{BaseHandler: base, ledger: ledger}
}

// List returns active cashboxes with balances.
// GET /cashboxes
func (h *CashboxHandler) List(c *gin.Context) {
	balances, err := h.ledger.Balances(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(balances))
}

// ManualEntries lists manual income and expense entries.
// GET /cashboxes/manual
func (h *CashboxHandler) ManualEntries(c *gin.Context) {
	var q dto.ManualEntryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	entries, err := h.ledger.ManualEntries(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(entries))
}

// AddManualEntry records income or expense outside any document.
// POST /cashboxes/manual
func (h *CashboxHandler) AddManualEntry(c *gin.Context) {
	var req dto.ManualEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := h.ledger.AddManualEntry(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entry)
}

// Entries lists one cashbox's ledger.
// GET /cashboxes/:cashbox/entries
func (h *CashboxHandler) Entries(c *gin.Context) {
	cb, entries, ok := h.loadLedger(c)
	if !ok {
		return
	}
	h.OK(c, gin.H{"cashbox": cb, "items": entries, "count": len(entries)})
}

// ExportEntries streams one cashbox's ledger as a spreadsheet.
// GET /cashboxes/:cashbox/entries.xlsx
func (h *CashboxHandler) ExportEntries(c *gin.Context) {
	cb, views, ok := h.loadLedger(c)
	if !ok {
		return
	}

	entries := make([]entity.CashboxEntry, len(views))
	for i, v := range views {
		entries[i] = v.CashboxEntry
	}

	var buf bytes.Buffer
	if err := export.LedgerXLSX(&buf, cb, entries); err != nil {
		h.Error(c, err)
		return
	}
	name := fmt.Sprintf("cashbox-%s-%s.xlsx", cb.Code, time.Now().Format("20060102"))
	h.Attachment(c, name, export.XLSXContentType, buf.Bytes())
}

func (h *CashboxHandler) loadLedger(c *gin.Context) (entity.Cashbox, []cashbox.EntryView, bool) {
	sel, err := cashbox.ParseSelector(c.Param("cashbox"))
	if err != nil {
		h.Error(c, err)
		return entity.Cashbox{}, nil, false
	}
	var q dto.LedgerQuery
	if !h.BindQuery(c, &q) {
		return entity.Cashbox{}, nil, false
	}
	from, to, err := q.Parse()
	if err != nil {
		h.Error(c, err)
		return entity.Cashbox{}, nil, false
	}

	cb, entries, err := h.ledger.Entries(c.Request.Context(), sel, from, to)
	if err != nil {
		h.Error(c, err)
		return entity.Cashbox{}, nil, false
	}
	return cb, entries, true
}
