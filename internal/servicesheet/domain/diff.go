package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field names a tracked snapshot field.
type Field string

const (
	FieldName       Field = "name"
	FieldQty        Field = "qty"
	FieldPrice      Field = "price"
	FieldDiscount   Field = "discount"
	FieldType       Field = "type"
	FieldUrgent     Field = "urgent"
	FieldDepartment Field = "department"
	FieldTechnician Field = "technician"
	FieldPipeline   Field = "pipeline"
	FieldBrand      Field = "brand"
	FieldSerial     Field = "serial"
	FieldWarranty   Field = "warranty"
	FieldService    Field = "service"
	FieldPart       Field = "part"
	FieldInstrument Field = "instrument"
)

// Change is one field's before and after value.
type Change struct {
	Label string `json:"label"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// UpdatedItem pairs a line with its previous state and the fields that moved.
type UpdatedItem struct {
	Current  Snapshot         `json:"current"`
	Previous Snapshot         `json:"previous"`
	Changes  map[Field]Change `json:"changes"`
}

// Diff is the structural difference between two snapshots.
type Diff struct {
	Added   []Snapshot    `json:"added"`
	Removed []Snapshot    `json:"removed"`
	Updated []UpdatedItem `json:"updated"`
}

// IsEmpty reports whether nothing was added, removed or updated.
func (d Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

type trackedField struct {
	field Field
	label string
	equal func(a, b Snapshot) bool
	value func(s Snapshot) any
}

var trackedFields = []trackedField{
	{FieldName, "Name", func(a, b Snapshot) bool { return a.Name == b.Name }, func(s Snapshot) any { return s.Name }},
	{FieldQty, "Quantity", func(a, b Snapshot) bool { return a.Qty == b.Qty }, func(s Snapshot) any { return s.Qty }},
	{FieldPrice, "Price", func(a, b Snapshot) bool { return a.Price.Equal(b.Price) }, func(s Snapshot) any { return s.Price }},
	{FieldDiscount, "Discount", func(a, b Snapshot) bool { return a.Discount.Equal(b.Discount) }, func(s Snapshot) any { return s.Discount }},
	{FieldType, "Type", func(a, b Snapshot) bool { return a.Type == b.Type }, func(s Snapshot) any { return s.Type }},
	{FieldUrgent, "Urgent", func(a, b Snapshot) bool { return a.Urgent == b.Urgent }, func(s Snapshot) any { return s.Urgent }},
	{FieldDepartment, "Department", func(a, b Snapshot) bool { return sameUUID(a.DepartmentID, b.DepartmentID) }, func(s Snapshot) any { return uuidValue(s.DepartmentID) }},
	{FieldTechnician, "Technician", func(a, b Snapshot) bool { return sameUUID(a.TechnicianID, b.TechnicianID) }, func(s Snapshot) any { return uuidValue(s.TechnicianID) }},
	{FieldPipeline, "Pipeline", func(a, b Snapshot) bool { return a.Pipeline == b.Pipeline }, func(s Snapshot) any { return s.Pipeline }},
	{FieldBrand, "Brand", func(a, b Snapshot) bool { return a.Brand == b.Brand }, func(s Snapshot) any { return s.Brand }},
	{FieldSerial, "Serial number", func(a, b Snapshot) bool { return a.Serial == b.Serial }, func(s Snapshot) any { return s.Serial }},
	{FieldWarranty, "Warranty", func(a, b Snapshot) bool { return a.Warranty == b.Warranty }, func(s Snapshot) any { return s.Warranty }},
	{FieldService, "Service", func(a, b Snapshot) bool { return sameUUID(a.ServiceID, b.ServiceID) }, func(s Snapshot) any { return uuidValue(s.ServiceID) }},
	{FieldPart, "Part", func(a, b Snapshot) bool { return sameUUID(a.PartID, b.PartID) }, func(s Snapshot) any { return uuidValue(s.PartID) }},
	{FieldInstrument, "Instrument", func(a, b Snapshot) bool { return sameUUID(a.InstrumentID, b.InstrumentID) }, func(s Snapshot) any { return uuidValue(s.InstrumentID) }},
}

// FieldLabel returns the human label of a tracked field.
func FieldLabel(field Field) string {
	for _, tf := range trackedFields {
		if tf.field == field {
			return tf.label
		}
	}
	return string(field)
}

// Compute diffs prev against next by id. Added and updated entries follow
// next order, removed entries follow prev order. Entries without an id in
// next are always added; entries without an id in prev were never persisted
// and are ignored.
func Compute(prev, next []Snapshot) Diff {
	diff := Diff{
		Added:   []Snapshot{},
		Removed: []Snapshot{},
		Updated: []UpdatedItem{},
	}

	prevByID := make(map[uuid.UUID]Snapshot, len(prev))
	for _, p := range prev {
		if p.ID != uuid.Nil {
			prevByID[p.ID] = p
		}
	}
	nextIDs := make(map[uuid.UUID]struct{}, len(next))

	for _, n := range next {
		if n.ID == uuid.Nil {
			diff.Added = append(diff.Added, n)
			continue
		}
		nextIDs[n.ID] = struct{}{}
		p, ok := prevByID[n.ID]
		if !ok {
			diff.Added = append(diff.Added, n)
			continue
		}
		if changes := Changes(p, n); len(changes) > 0 {
			diff.Updated = append(diff.Updated, UpdatedItem{Current: n, Previous: p, Changes: changes})
		}
	}

	for _, p := range prev {
		if p.ID == uuid.Nil {
			continue
		}
		if _, ok := nextIDs[p.ID]; !ok {
			diff.Removed = append(diff.Removed, p)
		}
	}
	return diff
}

// Changes lists the tracked fields that differ between a and b.
func Changes(a, b Snapshot) map[Field]Change {
	var out map[Field]Change
	for _, tf := range trackedFields {
		if tf.equal(a, b) {
			continue
		}
		if out == nil {
			out = make(map[Field]Change)
		}
		out[tf.field] = Change{Label: tf.label, Old: tf.value(a), New: tf.value(b)}
	}
	return out
}

func uuidValue(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

var hundred = decimal.NewFromInt(100)
