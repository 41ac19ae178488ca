package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is the flat, comparable projection of a line item. ID is uuid.Nil
// for lines that are not persisted yet.
type Snapshot struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Qty          int             `json:"qty"`
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	Type         Kind            `json:"type"`
	Urgent       bool            `json:"urgent"`
	DepartmentID *uuid.UUID      `json:"departmentId"`
	TechnicianID *uuid.UUID      `json:"technicianId"`
	Pipeline     string          `json:"pipeline"`
	Brand        string          `json:"brand"`
	Serial       string          `json:"serial"`
	Warranty     bool            `json:"warranty"`
	ServiceID    *uuid.UUID      `json:"serviceId,omitempty"`
	PartID       *uuid.UUID      `json:"partId,omitempty"`
	InstrumentID *uuid.UUID      `json:"instrumentId,omitempty"`
}

// Project maps a persisted line item to its snapshot.
func Project(li LineItem) Snapshot {
	serviceID, partID := ReferenceIDs(li.Ref)
	department := li.DepartmentID
	var departmentID *uuid.UUID
	if department != uuid.Nil {
		departmentID = &department
	}
	return Snapshot{
		ID:           li.ID,
		Name:         li.Attrs.Name,
		Qty:          defaultQty(li.Qty),
		Price:        li.Attrs.UnitPrice,
		Discount:     li.Attrs.DiscountPct,
		Type:         li.Kind(),
		Urgent:       li.Attrs.Urgent,
		DepartmentID: departmentID,
		TechnicianID: copyUUID(li.TechnicianID),
		Pipeline:     li.Pipeline,
		Brand:        derefString(li.Attrs.Brand),
		Serial:       derefString(li.Attrs.Serial),
		Warranty:     li.Attrs.Warranty,
		ServiceID:    serviceID,
		PartID:       copyUUID(partID),
		InstrumentID: copyUUID(li.InstrumentID),
	}
}

// ProjectAll projects items in order.
func ProjectAll(items []LineItem) []Snapshot {
	out := make([]Snapshot, 0, len(items))
	for _, item := range items {
		out = append(out, Project(item))
	}
	return out
}

// ProjectWorking maps a working item to its snapshot. Missing quantity
// defaults to 1 and missing price or discount to 0.
func ProjectWorking(w WorkingItem) Snapshot {
	id := uuid.Nil
	if w.ID != nil {
		id = *w.ID
	}
	serviceID, partID := ReferenceIDs(w.Ref)
	snap := Snapshot{
		ID:           id,
		Name:         w.Name,
		Qty:          defaultQty(w.Qty),
		Type:         w.Kind(),
		Urgent:       w.Urgent,
		DepartmentID: copyUUID(w.DepartmentID),
		TechnicianID: copyUUID(w.TechnicianID),
		Pipeline:     w.Pipeline,
		Brand:        w.Brand,
		Serial:       w.Serial,
		Warranty:     w.Warranty,
		ServiceID:    serviceID,
		PartID:       copyUUID(partID),
		InstrumentID: copyUUID(w.InstrumentID),
	}
	if w.Price != nil {
		snap.Price = *w.Price
	}
	if w.DiscountPct != nil {
		snap.Discount = *w.DiscountPct
	}
	return snap
}

func defaultQty(qty int) int {
	if qty <= 0 {
		return 1
	}
	return qty
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
