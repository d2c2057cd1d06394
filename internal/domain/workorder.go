package domain

import "time"

// WorkOrder is a field inspection assignment.
type WorkOrder struct {
	ID                 string    `json:"_id,omitempty"`
	Created            time.Time `json:"created"`
	AddedBy            string    `json:"addedBy" validate:"required"`
	AssignedTo         string    `json:"assignedTo" validate:"required"`
	InspectionFinished bool      `json:"inspectionFinished"`
	Details            Details   `json:"details"`
	Location           Location  `json:"location"`
}

// Details describes the inspection itself.
type Details struct {
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// Location is where the inspection takes place.
type Location struct {
	Zip       string `json:"zip" validate:"required"`
	Address   string `json:"address,omitempty"`
	Latitude  string `json:"latitude,omitempty" validate:"omitempty,numeric"`
	Longitude string `json:"longitude,omitempty" validate:"omitempty,numeric"`
}

// StampFinished sets the inspection date to now when the order is finished
// but no date was supplied.
func (o *WorkOrder) StampFinished(now time.Time) {
	if o.InspectionFinished && o.Details.Date == nil {
		o.Details.Date = &now
	}
}

// ApplyUpdate copies the client-editable fields of u onto o. The id and
// creation time are never taken from an update.
func (o *WorkOrder) ApplyUpdate(u WorkOrder) {
	o.AddedBy = u.AddedBy
	o.AssignedTo = u.AssignedTo
	o.InspectionFinished = u.InspectionFinished
	o.Details = u.Details
	o.Location = u.Location
}
