package domain

import "time"

type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
)

type Sender struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

type ShiftStatus string

const (
	ShiftOn  ShiftStatus = "on"
	ShiftOff ShiftStatus = "off"
)

// ShiftRecord is the latest known shift state of one phone.
// StartAt and EndAt are nil until the matching event happened.
type ShiftRecord struct {
	Phone   string      `json:"phone"`
	Status  ShiftStatus `json:"status"`
	StartAt *time.Time  `json:"start_at,omitempty"`
	EndAt   *time.Time  `json:"end_at,omitempty"`
}

type Report struct {
	ID    string    `json:"id"`
	Phone string    `json:"phone"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}
