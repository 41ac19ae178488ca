package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DepartmentResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ServiceResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DepartmentID *uuid.UUID      `json:"departmentId,omitempty"`
	InstrumentID *uuid.UUID      `json:"instrumentId,omitempty"`
}

type PartResponse struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type InstrumentResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	DepartmentID *uuid.UUID `json:"departmentId,omitempty"`
}

type StageResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
}

type PipelineResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	DepartmentID *uuid.UUID      `json:"departmentId,omitempty"`
	Stages       []StageResponse `json:"stages"`
}

// CatalogResponse bundles all reference data for clients that edit service sheets.
type CatalogResponse struct {
	Departments []DepartmentResponse `json:"departments"`
	Services    []ServiceResponse    `json:"services"`
	Parts       []PartResponse       `json:"parts"`
	Instruments []InstrumentResponse `json:"instruments"`
	Pipelines   []PipelineResponse   `json:"pipelines"`
}

// InvalidateCacheResponse confirms a cache flush.
type InvalidateCacheResponse struct {
	Prefix string `json:"prefix"`
}
