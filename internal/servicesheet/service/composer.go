package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/internal/servicesheet/repository"
)

// Composer renders headlines and payloads for audit events.
type Composer struct {
	rules domain.Rules
}

// NewComposer creates a composer.
func NewComposer(rules domain.Rules) *Composer {
	return &Composer{rules: rules}
}

type TrayView struct {
	ID       uuid.UUID `json:"id"`
	Number   string    `json:"number"`
	Size     string    `json:"size"`
	Status   string    `json:"status"`
	Pipeline *string   `json:"pipeline"`
	Stage    *string   `json:"stage"`
}

type RefView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type PersonView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

type ActorView struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
}

// ItemView is a line with its references resolved for display.
type ItemView struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Type       domain.Kind     `json:"type"`
	Qty        int             `json:"qty"`
	Price      decimal.Decimal `json:"price"`
	Discount   decimal.Decimal `json:"discount"`
	Urgent     bool            `json:"urgent"`
	Brand      string          `json:"brand,omitempty"`
	Serial     string          `json:"serial,omitempty"`
	Warranty   bool            `json:"warranty"`
	Pipeline   string          `json:"pipeline"`
	LineTotal  decimal.Decimal `json:"lineTotal"`
	Department *RefView        `json:"department"`
	Technician *PersonView     `json:"technician"`
	Instrument *RefView        `json:"instrument"`
}

type ChangeView struct {
	Label string `json:"label"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

type UpdatedView struct {
	ItemView
	Changes map[domain.Field]ChangeView `json:"changes"`
}

type DiffView struct {
	Added   []ItemView    `json:"added"`
	Removed []ItemView    `json:"removed"`
	Updated []UpdatedView `json:"updated"`
}

type InstrumentUsage struct {
	InstrumentID uuid.UUID `json:"instrumentId"`
	Name         string    `json:"name"`
	Lines        int       `json:"lines"`
	Quantity     int       `json:"quantity"`
}

type BaselineView struct {
	Source   string      `json:"source"`
	StaleIDs []uuid.UUID `json:"staleIds"`
}

// SavePayload is the structured body of a service_sheet_save event.
type SavePayload struct {
	LeadID          uuid.UUID         `json:"leadId"`
	TrayID          uuid.UUID         `json:"trayId"`
	Tray            *TrayView         `json:"tray"`
	Totals          domain.Totals     `json:"totals"`
	InstrumentUsage []InstrumentUsage `json:"instrumentUsage"`
	Diff            DiffView          `json:"diff"`
	Actor           ActorView         `json:"actor"`
	Baseline        BaselineView      `json:"baseline"`
}

// SaveMessage is a composed service_sheet_save event.
type SaveMessage struct {
	Headline string
	Payload  SavePayload
}

// SaveInput is what Save composes from.
type SaveInput struct {
	LeadID            uuid.UUID
	TrayID            uuid.UUID
	Snapshot          []domain.Snapshot
	Diff              domain.Diff
	Catalog           *domain.CatalogIndex
	Refs              References
	Actor             Actor
	GlobalDiscountPct *decimal.Decimal
	SubscriptionType  string
	StaleIDs          []uuid.UUID
}

// Save composes the lead-level message for a committed save.
func (c *Composer) Save(in SaveInput) SaveMessage {
	totals := domain.ComputeTotals(in.Snapshot, c.rules.UrgentMarkup(), in.GlobalDiscountPct, in.SubscriptionType)

	stale := in.StaleIDs
	if stale == nil {
		stale = []uuid.UUID{}
	}

	return SaveMessage{
		Headline: c.headline(in.Diff, totals),
		Payload: SavePayload{
			LeadID:          in.LeadID,
			TrayID:          in.TrayID,
			Tray:            trayView(in.Refs.Tray),
			Totals:          totals,
			InstrumentUsage: instrumentUsage(in.Snapshot, in.Catalog),
			Diff:            c.diffView(in.Diff, in.Catalog, in.Refs),
			Actor:           ActorView{ID: in.Actor.ID, Email: in.Actor.Email},
			Baseline:        BaselineView{Source: "caller", StaleIDs: stale},
		},
	}
}

func (c *Composer) headline(diff domain.Diff, totals domain.Totals) string {
	var b strings.Builder
	b.WriteString("Service sheet saved.")

	var clauses []string
	if len(diff.Added) > 0 {
		clauses = append(clauses, "Added: "+c.nameList(snapshotNames(diff.Added)))
	}
	if len(diff.Removed) > 0 {
		clauses = append(clauses, "Removed: "+c.nameList(snapshotNames(diff.Removed)))
	}
	if len(diff.Updated) > 0 {
		names := make([]string, 0, len(diff.Updated))
		for _, u := range diff.Updated {
			names = append(names, displayName(u.Current))
		}
		clauses = append(clauses, "Updated: "+c.nameList(names))
	}
	if len(clauses) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(clauses, "; "))
		b.WriteString(".")
	}

	fmt.Fprintf(&b, " Services: %d, parts: %d, urgent: %d, total: %s, discount: %s",
		totals.ServiceLines, totals.PartLines, totals.UrgentLines,
		totals.TotalAmount.StringFixed(2), totals.DiscountTotal.StringFixed(2))
	if totals.GlobalDiscountPct != nil {
		fmt.Fprintf(&b, ", global discount: %s%%", totals.GlobalDiscountPct.String())
	}
	return b.String()
}

// nameList joins up to the configured number of names, marking truncation.
func (c *Composer) nameList(names []string) string {
	limit := c.rules.HeadlineNameLimit
	if limit <= 0 || len(names) <= limit {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:limit], ", ") + "..."
}

func snapshotNames(items []domain.Snapshot) []string {
	names := make([]string, 0, len(items))
	for _, s := range items {
		names = append(names, displayName(s))
	}
	return names
}

func displayName(s domain.Snapshot) string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return string(s.Type)
}

func trayView(tray *repository.Tray) *TrayView {
	if tray == nil {
		return nil
	}
	return &TrayView{
		ID:       tray.ID,
		Number:   tray.Number,
		Size:     tray.Size,
		Status:   tray.Status,
		Pipeline: tray.PipelineName,
		Stage:    tray.StageName,
	}
}

func instrumentUsage(items []domain.Snapshot, idx *domain.CatalogIndex) []InstrumentUsage {
	byID := make(map[uuid.UUID]*InstrumentUsage)
	for _, s := range items {
		if s.InstrumentID == nil {
			continue
		}
		usage, ok := byID[*s.InstrumentID]
		if !ok {
			usage = &InstrumentUsage{InstrumentID: *s.InstrumentID, Name: idx.InstrumentName(*s.InstrumentID)}
			byID[*s.InstrumentID] = usage
		}
		usage.Lines++
		usage.Quantity += s.Qty
	}

	out := make([]InstrumentUsage, 0, len(byID))
	for _, usage := range byID {
		out = append(out, *usage)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].InstrumentID.String() < out[j].InstrumentID.String()
	})
	return out
}

func (c *Composer) diffView(diff domain.Diff, idx *domain.CatalogIndex, refs References) DiffView {
	view := DiffView{
		Added:   make([]ItemView, 0, len(diff.Added)),
		Removed: make([]ItemView, 0, len(diff.Removed)),
		Updated: make([]UpdatedView, 0, len(diff.Updated)),
	}
	for _, s := range diff.Added {
		view.Added = append(view.Added, c.itemView(s, idx, refs))
	}
	for _, s := range diff.Removed {
		view.Removed = append(view.Removed, c.itemView(s, idx, refs))
	}
	for _, u := range diff.Updated {
		changes := make(map[domain.Field]ChangeView, len(u.Changes))
		for field, change := range u.Changes {
			changes[field] = ChangeView{
				Label: change.Label,
				Old:   displayValue(field, change.Old, idx, refs),
				New:   displayValue(field, change.New, idx, refs),
			}
		}
		view.Updated = append(view.Updated, UpdatedView{ItemView: c.itemView(u.Current, idx, refs), Changes: changes})
	}
	return view
}

func (c *Composer) itemView(s domain.Snapshot, idx *domain.CatalogIndex, refs References) ItemView {
	view := ItemView{
		ID:        s.ID,
		Name:      s.Name,
		Type:      s.Type,
		Qty:       s.Qty,
		Price:     s.Price,
		Discount:  s.Discount,
		Urgent:    s.Urgent,
		Brand:     s.Brand,
		Serial:    s.Serial,
		Warranty:  s.Warranty,
		Pipeline:  s.Pipeline,
		LineTotal: domain.PriceLine(s, c.rules.UrgentMarkup()).Total.Round(2),
	}
	if s.DepartmentID != nil {
		view.Department = &RefView{ID: *s.DepartmentID, Name: refs.DepartmentName(*s.DepartmentID)}
	}
	if s.TechnicianID != nil {
		person := personView(*s.TechnicianID, refs)
		view.Technician = &person
	}
	if s.InstrumentID != nil {
		view.Instrument = &RefView{ID: *s.InstrumentID, Name: idx.InstrumentName(*s.InstrumentID)}
	}
	return view
}

func personView(id uuid.UUID, refs References) PersonView {
	if u, ok := refs.User(id); ok {
		return PersonView{ID: id, Name: u.DisplayName, Email: u.Email}
	}
	return PersonView{ID: id, Name: id.String()}
}

// displayValue swaps ids in a change for readable names.
func displayValue(field domain.Field, value any, idx *domain.CatalogIndex, refs References) any {
	id, ok := value.(uuid.UUID)
	if !ok {
		return value
	}
	switch field {
	case domain.FieldTechnician:
		return personView(id, refs).Name
	case domain.FieldDepartment:
		return refs.DepartmentName(id)
	case domain.FieldService:
		if svc, ok := idx.Service(id); ok {
			return svc.Name
		}
	case domain.FieldPart:
		if part, ok := idx.Part(id); ok {
			return part.Name
		}
	case domain.FieldInstrument:
		if name := idx.InstrumentName(id); name != "" {
			return name
		}
	}
	return id
}

// AssignmentPayload is the structured body of a technician_assigned event.
type AssignmentPayload struct {
	LeadID             uuid.UUID   `json:"leadId"`
	TrayID             uuid.UUID   `json:"trayId"`
	TrayNumber         string      `json:"trayNumber,omitempty"`
	ItemID             uuid.UUID   `json:"itemId"`
	ItemName           string      `json:"itemName"`
	Technician         PersonView  `json:"technician"`
	PreviousTechnician *PersonView `json:"previousTechnician"`
	Actor              ActorView   `json:"actor"`
}

// AssignmentMessage is a composed technician_assigned event.
type AssignmentMessage struct {
	Message string
	Payload AssignmentPayload
}

// Assignment composes the tray-level message for one technician change.
func (c *Composer) Assignment(leadID, trayID uuid.UUID, a technicianAssignment, refs References, actor Actor) AssignmentMessage {
	technician := personView(a.Technician, refs)
	payload := AssignmentPayload{
		LeadID:     leadID,
		TrayID:     trayID,
		ItemID:     a.ItemID,
		ItemName:   a.ItemName,
		Technician: technician,
		Actor:      ActorView{ID: actor.ID, Email: actor.Email},
	}
	if refs.Tray != nil {
		payload.TrayNumber = refs.Tray.Number
	}

	message := fmt.Sprintf("Technician %s assigned to %s", technician.Name, itemLabel(a.ItemName))
	if a.Previous != nil {
		previous := personView(*a.Previous, refs)
		payload.PreviousTechnician = &previous
		message += fmt.Sprintf(" (previously %s)", previous.Name)
	}
	return AssignmentMessage{Message: message, Payload: payload}
}

func itemLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return "line item"
	}
	return name
}
