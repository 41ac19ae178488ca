package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Department is a work department owning items and pipelines.
type Department struct {
	ID   uuid.UUID
	Name string
}

// CatalogService is a billable service definition.
type CatalogService struct {
	ID           uuid.UUID
	Name         string
	Price        decimal.Decimal
	DepartmentID *uuid.UUID
	InstrumentID *uuid.UUID
}

// CatalogPart is a stocked part.
type CatalogPart struct {
	ID    uuid.UUID
	Name  string
	Price decimal.Decimal
}

// Instrument is a customer tool type handled by a department.
type Instrument struct {
	ID           uuid.UUID
	Name         string
	DepartmentID *uuid.UUID
}

// Pipeline is a workflow board, optionally bound to one department.
type Pipeline struct {
	ID           uuid.UUID
	Name         string
	DepartmentID *uuid.UUID
}

// Catalogs is the reference data a reconcile call resolves against.
type Catalogs struct {
	Services    []CatalogService
	Parts       []CatalogPart
	Instruments []Instrument
	Pipelines   []Pipeline
}

// CatalogIndex answers id lookups over Catalogs.
type CatalogIndex struct {
	services     map[uuid.UUID]CatalogService
	parts        map[uuid.UUID]CatalogPart
	instruments  map[uuid.UUID]Instrument
	pipelines    map[uuid.UUID]Pipeline
	byDepartment map[uuid.UUID]Pipeline
}

// NewCatalogIndex indexes c. When several pipelines share a department the
// first one listed wins.
func NewCatalogIndex(c Catalogs) *CatalogIndex {
	idx := &CatalogIndex{
		services:     make(map[uuid.UUID]CatalogService, len(c.Services)),
		parts:        make(map[uuid.UUID]CatalogPart, len(c.Parts)),
		instruments:  make(map[uuid.UUID]Instrument, len(c.Instruments)),
		pipelines:    make(map[uuid.UUID]Pipeline, len(c.Pipelines)),
		byDepartment: make(map[uuid.UUID]Pipeline),
	}
	for _, s := range c.Services {
		idx.services[s.ID] = s
	}
	for _, p := range c.Parts {
		idx.parts[p.ID] = p
	}
	for _, i := range c.Instruments {
		idx.instruments[i.ID] = i
	}
	for _, p := range c.Pipelines {
		idx.pipelines[p.ID] = p
		if p.DepartmentID == nil {
			continue
		}
		if _, taken := idx.byDepartment[*p.DepartmentID]; !taken {
			idx.byDepartment[*p.DepartmentID] = p
		}
	}
	return idx
}

func (idx *CatalogIndex) Service(id uuid.UUID) (CatalogService, bool) {
	s, ok := idx.services[id]
	return s, ok
}

func (idx *CatalogIndex) Part(id uuid.UUID) (CatalogPart, bool) {
	p, ok := idx.parts[id]
	return p, ok
}

func (idx *CatalogIndex) Instrument(id uuid.UUID) (Instrument, bool) {
	i, ok := idx.instruments[id]
	return i, ok
}

func (idx *CatalogIndex) Pipeline(id uuid.UUID) (Pipeline, bool) {
	p, ok := idx.pipelines[id]
	return p, ok
}

// PipelineNameForDepartment returns the name of the pipeline serving the
// department, or "" when none is bound to it.
func (idx *CatalogIndex) PipelineNameForDepartment(departmentID uuid.UUID) string {
	return idx.byDepartment[departmentID].Name
}

// InstrumentName returns the instrument's catalog name, or "" when unknown.
func (idx *CatalogIndex) InstrumentName(id uuid.UUID) string {
	return idx.instruments[id].Name
}
