package models

import "encoding/json"

// Complaint categories offered by the intake forms. Category is free text, so any
// other value is accepted as well.
const (
	CategoryTheft           = "theft"
	CategoryFraud           = "fraud"
	CategoryHarassment      = "harassment"
	CategoryTrafficViolence = "traffic-violence"
	CategoryCyberCrime      = "cyber-crime"
	CategoryMurder          = "murder"
	CategoryOther           = "other"
)

// Categories lists the enumerated categories in form order
var Categories = []string{
	CategoryTheft,
	CategoryFraud,
	CategoryHarassment,
	CategoryTrafficViolence,
	CategoryCyberCrime,
	CategoryMurder,
	CategoryOther,
}

// Complainant holds the person filing the report
type Complainant struct {
	Name        string `json:"name" bson:"name" validate:"notblank"`
	Address     string `json:"address" bson:"address" validate:"notblank"`
	Phone       string `json:"phone" bson:"phone" validate:"notblank"`
	Description string `json:"description" bson:"description" validate:"notblank"`

	// Extra keeps fields the forms send that are not named above
	Extra map[string]json.RawMessage `json:"-" bson:"-"`
}

// Report is a draft or finalized First Information Report.
// The JSON field names match what the citizen and officer clients send:
// the officer form posts category, the citizen form posts complaintType.
//
// Decoding is lenient so a collection written by any client stays readable.
// Non-string scalars in text fields are read as their literal text, unknown
// fields land in Extra, and an element that is not an object is kept in Raw.
// Encoding writes all of them back unchanged.
type Report struct {
	FIRNumber     string      `json:"firNumber" bson:"firNumber"`
	DateTime      string      `json:"dateTime,omitempty" bson:"dateTime,omitempty"`
	Complainant   Complainant `json:"complainant" bson:"complainant"`
	Category      string      `json:"category,omitempty" bson:"category,omitempty"`
	ComplaintType string      `json:"complaintType,omitempty" bson:"complaintType,omitempty"`
	CreatedAt     string      `json:"createdAt,omitempty" bson:"createdAt,omitempty"`

	Extra map[string]json.RawMessage `json:"-" bson:"-"`
	Raw   json.RawMessage            `json:"-" bson:"-"`
}

// Kind returns the complaint category under whichever name the client used
func (r Report) Kind() string {
	if r.Category != "" {
		return r.Category
	}
	return r.ComplaintType
}

// MessageResponse is the confirmation body returned by mutating endpoints
type MessageResponse struct {
	Message   string `json:"message"`
	FIRNumber string `json:"firNumber,omitempty"`
}

// ChangeEvent describes a successful mutation of a collection
type ChangeEvent struct {
	Collection string `json:"collection"`
	Action     string `json:"action"` // "created" or "deleted"
	FIRNumber  string `json:"firNumber"`
	At         string `json:"at"`
}

// Change actions
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)
