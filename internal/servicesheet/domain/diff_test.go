package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func serviceSnapshot(id uuid.UUID, name string, qty int, technician *uuid.UUID) Snapshot {
	return Snapshot{
		ID:           id,
		Name:         name,
		Qty:          qty,
		Price:        decimal.NewFromInt(50),
		Discount:     decimal.Zero,
		Type:         KindService,
		TechnicianID: technician,
		Pipeline:     "Repairs",
	}
}

func TestComputeIdenticalSnapshotsIsEmpty(t *testing.T) {
	s := []Snapshot{
		serviceSnapshot(uuid.New(), "Sharpen", 1, nil),
		serviceSnapshot(uuid.New(), "Polish", 2, ptr(uuid.New())),
	}

	diff := Compute(s, s)

	assert.True(t, diff.IsEmpty())
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
	assert.Empty(t, diff.Updated)
}

func TestComputeReportsQtyAndTechnicianChanges(t *testing.T) {
	id := uuid.New()
	techA, techB := uuid.New(), uuid.New()
	prev := []Snapshot{serviceSnapshot(id, "Sharpen", 1, &techA)}
	next := []Snapshot{serviceSnapshot(id, "Sharpen", 2, &techB)}

	diff := Compute(prev, next)

	require.Len(t, diff.Updated, 1)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)

	changes := diff.Updated[0].Changes
	require.Len(t, changes, 2)
	assert.Equal(t, Change{Label: "Quantity", Old: 1, New: 2}, changes[FieldQty])
	assert.Equal(t, techA, changes[FieldTechnician].Old)
	assert.Equal(t, techB, changes[FieldTechnician].New)
}

func TestComputeRemovalAndNewPart(t *testing.T) {
	kept := serviceSnapshot(uuid.New(), "Sharpen", 1, nil)
	dropped := serviceSnapshot(uuid.New(), "Polish", 1, nil)
	part := Snapshot{ID: uuid.Nil, Name: "Blade", Qty: 1, Type: KindPart}

	diff := Compute([]Snapshot{kept, dropped}, []Snapshot{kept, part})

	require.Len(t, diff.Removed, 1)
	assert.Equal(t, dropped.ID, diff.Removed[0].ID)
	require.Len(t, diff.Added, 1)
	assert.Equal(t, "Blade", diff.Added[0].Name)
	assert.Empty(t, diff.Updated)
}

func TestComputeOrdering(t *testing.T) {
	a := serviceSnapshot(uuid.New(), "A", 1, nil)
	b := serviceSnapshot(uuid.New(), "B", 1, nil)
	c := serviceSnapshot(uuid.New(), "C", 1, nil)
	d := serviceSnapshot(uuid.New(), "D", 1, nil)
	e := serviceSnapshot(uuid.New(), "E", 1, nil)

	diff := Compute([]Snapshot{c, a, b}, []Snapshot{e, d})

	names := func(items []Snapshot) []string {
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.Name)
		}
		return out
	}
	assert.Equal(t, []string{"E", "D"}, names(diff.Added))
	assert.Equal(t, []string{"C", "A", "B"}, names(diff.Removed))
}

func TestComputeIgnoresUnpersistedPreviousEntries(t *testing.T) {
	draft := Snapshot{ID: uuid.Nil, Name: "Draft", Qty: 1, Type: KindPart}

	diff := Compute([]Snapshot{draft}, nil)

	assert.True(t, diff.IsEmpty())
}

func TestComputeDecimalEqualityIgnoresScale(t *testing.T) {
	id := uuid.New()
	prev := serviceSnapshot(id, "Sharpen", 1, nil)
	next := prev
	next.Price = decimal.RequireFromString("50.00")

	assert.True(t, Compute([]Snapshot{prev}, []Snapshot{next}).IsEmpty())
}
