package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OptionalUUID distinguishes "leave as is" from "set, possibly to null".
type OptionalUUID struct {
	Value *uuid.UUID
	Set   bool
}

// AttributesPatch holds the attribute keys to overwrite.
type AttributesPatch struct {
	Name        *string
	UnitPrice   *decimal.Decimal
	DiscountPct *decimal.Decimal
	Urgent      *bool
	Brand       *string
	Serial      *string
	Warranty    *bool
}

// IsEmpty reports whether no attribute key is touched.
func (p AttributesPatch) IsEmpty() bool {
	return p.Name == nil && p.UnitPrice == nil && p.DiscountPct == nil &&
		p.Urgent == nil && p.Brand == nil && p.Serial == nil && p.Warranty == nil
}

// Patch is the minimal update for an existing line. Nil fields are untouched.
// Ref is only set on a type change and rewrites the variant columns.
type Patch struct {
	Ref          Reference
	InstrumentID *uuid.UUID
	DepartmentID *uuid.UUID
	Qty          *int
	Pipeline     *string
	Technician   OptionalUUID
	Attrs        AttributesPatch
}

// IsEmpty reports whether applying p would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Ref == nil && p.InstrumentID == nil && p.DepartmentID == nil &&
		p.Qty == nil && p.Pipeline == nil && !p.Technician.Set && p.Attrs.IsEmpty()
}

// SetTechnician records a technician change.
func (p *Patch) SetTechnician(id *uuid.UUID) {
	p.Technician = OptionalUUID{Value: copyUUID(id), Set: true}
}

// BuildPatch compares the caller's previous view of a line with the working
// item and keeps only the fields that differ. An empty name or pipeline, or a
// nil price or discount, means the caller did not supply the value and it is
// left alone. Type changes are not handled here.
func BuildPatch(prev Snapshot, w WorkingItem) Patch {
	var patch Patch

	if qty := defaultQty(w.Qty); qty != prev.Qty {
		patch.Qty = &qty
	}
	if pipeline := strings.TrimSpace(w.Pipeline); pipeline != "" && pipeline != prev.Pipeline {
		patch.Pipeline = &pipeline
	}
	if !sameUUID(w.TechnicianID, prev.TechnicianID) {
		patch.SetTechnician(w.TechnicianID)
	}

	if name := strings.TrimSpace(w.Name); name != "" && name != prev.Name {
		patch.Attrs.Name = &name
	}
	if w.Price != nil && !w.Price.Equal(prev.Price) {
		price := *w.Price
		patch.Attrs.UnitPrice = &price
	}
	if w.DiscountPct != nil && !w.DiscountPct.Equal(prev.Discount) {
		discount := *w.DiscountPct
		patch.Attrs.DiscountPct = &discount
	}
	if w.Urgent != prev.Urgent {
		urgent := w.Urgent
		patch.Attrs.Urgent = &urgent
	}
	if brand := strings.TrimSpace(w.Brand); brand != prev.Brand {
		patch.Attrs.Brand = &brand
	}
	if serial := strings.TrimSpace(w.Serial); serial != prev.Serial {
		patch.Attrs.Serial = &serial
	}
	if w.Warranty != prev.Warranty {
		warranty := w.Warranty
		patch.Attrs.Warranty = &warranty
	}
	return patch
}

// Apply merges the patch into attrs. Empty brand or serial values clear the key.
func (p AttributesPatch) Apply(attrs Attributes) Attributes {
	if p.Name != nil {
		attrs.Name = *p.Name
	}
	if p.UnitPrice != nil {
		attrs.UnitPrice = *p.UnitPrice
	}
	if p.DiscountPct != nil {
		attrs.DiscountPct = *p.DiscountPct
	}
	if p.Urgent != nil {
		attrs.Urgent = *p.Urgent
	}
	if p.Brand != nil {
		attrs.Brand = optionalString(*p.Brand)
	}
	if p.Serial != nil {
		attrs.Serial = optionalString(*p.Serial)
	}
	if p.Warranty != nil {
		attrs.Warranty = *p.Warranty
	}
	attrs.Version = AttributesVersion
	return attrs
}

// Apply returns li with the patch applied.
func (p Patch) Apply(li LineItem) LineItem {
	if p.Ref != nil {
		li.Ref = p.Ref
	}
	if p.InstrumentID != nil {
		li.InstrumentID = copyUUID(p.InstrumentID)
	}
	if p.DepartmentID != nil {
		li.DepartmentID = *p.DepartmentID
	}
	if p.Qty != nil {
		li.Qty = *p.Qty
	}
	if p.Pipeline != nil {
		li.Pipeline = *p.Pipeline
	}
	if p.Technician.Set {
		li.TechnicianID = copyUUID(p.Technician.Value)
	}
	li.Attrs = p.Attrs.Apply(li.Attrs)
	return li
}

// NewAttributes builds the attribute record for a freshly created line.
func NewAttributes(name string, price, discount decimal.Decimal, w WorkingItem) Attributes {
	return Attributes{
		Version:     AttributesVersion,
		Name:        strings.TrimSpace(name),
		UnitPrice:   price,
		DiscountPct: discount,
		Urgent:      w.Urgent,
		Brand:       optionalString(w.Brand),
		Serial:      optionalString(w.Serial),
		Warranty:    w.Warranty,
	}
}
