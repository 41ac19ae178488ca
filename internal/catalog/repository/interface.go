package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Department is a work department.
type Department struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Service is a billable service definition.
type Service struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DepartmentID *uuid.UUID      `json:"departmentId,omitempty"`
	InstrumentID *uuid.UUID      `json:"instrumentId,omitempty"`
}

// Part is a stocked part.
type Part struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Instrument is a customer tool type handled by a department.
type Instrument struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	DepartmentID *uuid.UUID `json:"departmentId,omitempty"`
}

// Stage is one column of a pipeline.
type Stage struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
}

// Pipeline is a workflow board, optionally bound to a department.
type Pipeline struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	DepartmentID *uuid.UUID `json:"departmentId,omitempty"`
	Stages       []Stage    `json:"stages"`
}

// Reader lists reference data. Only active services, parts and instruments
// are returned.
type Reader interface {
	ListDepartments(ctx context.Context) ([]Department, error)
	ListServices(ctx context.Context) ([]Service, error)
	ListParts(ctx context.Context) ([]Part, error)
	ListInstruments(ctx context.Context) ([]Instrument, error)
	ListPipelines(ctx context.Context) ([]Pipeline, error)
}

// Repository is the catalog persistence port.
type Repository interface {
	Reader
}
