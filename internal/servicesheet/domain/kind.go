// Package domain holds the pure service-sheet model: line item variants,
// snapshots, diffs, patches, totals and the assignment rules. Nothing here
// performs I/O.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Kind classifies a line item.
type Kind string

const (
	KindService    Kind = "service"
	KindPart       Kind = "part"
	KindInstrument Kind = "instrument"
)

// ParseKind accepts the wire names of the three variants. An empty value is a
// bare instrument line.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindService:
		return KindService, true
	case KindPart:
		return KindPart, true
	case KindInstrument, "":
		return KindInstrument, true
	default:
		return "", false
	}
}

// Reference is what a line item points at. Exactly one of ServiceRef,
// PartRef or InstrumentRef.
type Reference interface {
	Kind() Kind
	isReference()
}

// ServiceRef links a line to a service catalog entry.
type ServiceRef struct {
	ServiceID uuid.UUID
}

// PartRef links a line to a part. Parts may be free text, so PartID is optional.
type PartRef struct {
	PartID *uuid.UUID
}

// InstrumentRef marks a bare instrument line; the instrument itself lives on
// the line item.
type InstrumentRef struct{}

func (ServiceRef) Kind() Kind    { return KindService }
func (PartRef) Kind() Kind       { return KindPart }
func (InstrumentRef) Kind() Kind { return KindInstrument }

func (ServiceRef) isReference()    {}
func (PartRef) isReference()       {}
func (InstrumentRef) isReference() {}

// KindOf treats a nil reference as a bare instrument.
func KindOf(ref Reference) Kind {
	if ref == nil {
		return KindInstrument
	}
	return ref.Kind()
}

// ReferenceIDs flattens ref into the service and part columns it occupies.
func ReferenceIDs(ref Reference) (serviceID, partID *uuid.UUID) {
	switch r := ref.(type) {
	case ServiceRef:
		id := r.ServiceID
		return &id, nil
	case PartRef:
		return nil, r.PartID
	default:
		return nil, nil
	}
}

// ReferenceFromColumns rebuilds the variant from persisted columns.
func ReferenceFromColumns(kind Kind, serviceID, partID *uuid.UUID) Reference {
	switch kind {
	case KindService:
		if serviceID != nil {
			return ServiceRef{ServiceID: *serviceID}
		}
	case KindPart:
		return PartRef{PartID: partID}
	}
	return InstrumentRef{}
}
