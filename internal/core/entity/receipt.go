package entity

import "time"

// ReceiptStatus is the payment state of a sale or restock.
type ReceiptStatus string

const (
	StatusPaid    ReceiptStatus = "PAID"
	StatusPartial ReceiptStatus = "PARTIAL"
	StatusUnpaid  ReceiptStatus = "UNPAID"
)

// Valid reports whether s is one of the three statuses.
func (s ReceiptStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusUnpaid:
		return true
	}
	return false
}

// ManualStatus is an operator-set status with its audit data.
type ManualStatus struct {
	Value ReceiptStatus `json:"value"`
	Note  string        `json:"note,omitempty"`
	SetAt time.Time     `json:"setAt"`
}

// StatusOverride is either Computed (zero value) or Manual.
// The manual payload is only reachable through Manual(), so a
// "disabled but carrying a value" state cannot be built.
type StatusOverride struct {
	manual *ManualStatus
}

// Computed returns the no-override state.
func Computed() StatusOverride {
	return StatusOverride{}
}

// Manual returns an override pinning the status to value.
func Manual(value ReceiptStatus, note string, setAt time.Time) StatusOverride {
	return StatusOverride{manual: &ManualStatus{Value: value, Note: note, SetAt: setAt}}
}

// Manual returns the manual payload and whether the override is active.
func (o StatusOverride) Manual() (ManualStatus, bool) {
	if o.manual == nil {
		return ManualStatus{}, false
	}
	return *o.manual, true
}

// IsManual reports whether a manual value is in effect.
func (o StatusOverride) IsManual() bool {
	return o.manual != nil
}

// StatusColumns is the flattened storage form of a StatusOverride shared by
// sales and restocks.
type StatusColumns struct {
	ManualEnabled bool           `db:"status_manual_enabled" json:"-"`
	ManualValue   *ReceiptStatus `db:"status_manual_value" json:"-"`
	ManualNote    *string        `db:"status_manual_note" json:"-"`
	ManualSetAt   *time.Time     `db:"status_manual_set_at" json:"-"`
}

// Override rebuilds the tagged value from its columns. Rows whose columns
// disagree (enabled without a valid value) read as Computed.
func (c StatusColumns) Override() StatusOverride {
	if !c.ManualEnabled || c.ManualValue == nil || !c.ManualValue.Valid() {
		return Computed()
	}
	var at time.Time
	if c.ManualSetAt != nil {
		at = *c.ManualSetAt
	}
	return Manual(*c.ManualValue, StrVal(c.ManualNote), at)
}

// SetOverride flattens o into the columns.
func (c *StatusColumns) SetOverride(o StatusOverride) {
	m, ok := o.Manual()
	if !ok {
		*c = StatusColumns{}
		return
	}
	v, at := m.Value, m.SetAt
	c.ManualEnabled = true
	c.ManualValue = &v
	c.ManualNote = StrPtr(m.Note)
	c.ManualSetAt = &at
}
