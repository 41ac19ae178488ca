package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttributesVersion is the current layout of Attributes.
const AttributesVersion = 1

// Attributes is the per-line attribute record stored alongside the line item.
type Attributes struct {
	Version     int             `json:"v"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	DiscountPct decimal.Decimal `json:"discountPct"`
	Urgent      bool            `json:"urgent"`
	Brand       *string         `json:"brand,omitempty"`
	Serial      *string         `json:"serial,omitempty"`
	Warranty    bool            `json:"warranty"`
}

// DecodeAttributes reads a stored attribute record. Records written before
// versioning (v = 0) are upgraded in place; newer versions are rejected.
func DecodeAttributes(raw []byte) (Attributes, error) {
	attrs := Attributes{Version: AttributesVersion}
	if len(raw) == 0 {
		return attrs, nil
	}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return Attributes{}, fmt.Errorf("decode line item attributes: %w", err)
	}
	switch {
	case attrs.Version == 0:
		attrs.Version = AttributesVersion
	case attrs.Version > AttributesVersion:
		return Attributes{}, fmt.Errorf("line item attributes version %d is newer than supported %d", attrs.Version, AttributesVersion)
	}
	return attrs, nil
}

// Encode serialises the record at the current version.
func (a Attributes) Encode() ([]byte, error) {
	a.Version = AttributesVersion
	return json.Marshal(a)
}

// LineItem is a persisted tray line.
type LineItem struct {
	ID           uuid.UUID  `json:"id"`
	TrayID       uuid.UUID  `json:"trayId"`
	Ref          Reference  `json:"-"`
	InstrumentID *uuid.UUID `json:"instrumentId,omitempty"`
	DepartmentID uuid.UUID  `json:"departmentId"`
	TechnicianID *uuid.UUID `json:"technicianId,omitempty"`
	Pipeline     string     `json:"pipeline"`
	Qty          int        `json:"qty"`
	Attrs        Attributes `json:"attributes"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Kind reports the line's variant.
func (li LineItem) Kind() Kind {
	return KindOf(li.Ref)
}

// MarshalJSON exposes the variant and its catalog ids next to the stored fields.
func (li LineItem) MarshalJSON() ([]byte, error) {
	type plain LineItem
	serviceID, partID := ReferenceIDs(li.Ref)
	return json.Marshal(struct {
		plain
		Type      Kind       `json:"type"`
		ServiceID *uuid.UUID `json:"serviceId,omitempty"`
		PartID    *uuid.UUID `json:"partId,omitempty"`
	}{plain: plain(li), Type: li.Kind(), ServiceID: serviceID, PartID: partID})
}

// WorkingItem is one entry of the caller's desired end state. ID is nil for
// lines that have not been persisted yet. Nil Price and DiscountPct mean
// "not supplied".
type WorkingItem struct {
	ID           *uuid.UUID
	Ref          Reference
	InstrumentID *uuid.UUID
	DepartmentID *uuid.UUID
	TechnicianID *uuid.UUID
	Name         string
	Qty          int
	Price        *decimal.Decimal
	DiscountPct  *decimal.Decimal
	Urgent       bool
	Brand        string
	Serial       string
	Warranty     bool
	Pipeline     string
}

// Kind reports the working item's variant.
func (w WorkingItem) Kind() Kind {
	return KindOf(w.Ref)
}

// IsNew reports whether the item still needs to be created.
func (w WorkingItem) IsNew() bool {
	return w.ID == nil || *w.ID == uuid.Nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
