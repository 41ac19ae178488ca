package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskTechnicianAssigned = "servicesheet.technician_assigned"

// TechnicianAssignedPayload carries everything the worker needs to notify a
// technician without reading the tray again.
type TechnicianAssignedPayload struct {
	LeadID               string  `json:"leadId"`
	TrayID               string  `json:"trayId"`
	TrayNumber           string  `json:"trayNumber,omitempty"`
	ItemID               string  `json:"itemId"`
	ItemName             string  `json:"itemName"`
	TechnicianID         string  `json:"technicianId"`
	PreviousTechnicianID *string `json:"previousTechnicianId,omitempty"`
	AssignedByID         string  `json:"assignedById"`
}

func NewTechnicianAssignedTask(payload TechnicianAssignedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTechnicianAssigned, data), nil
}

func ParseTechnicianAssignedPayload(task *asynq.Task) (TechnicianAssignedPayload, error) {
	var payload TechnicianAssignedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TechnicianAssignedPayload{}, err
	}
	return payload, nil
}
