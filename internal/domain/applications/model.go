package applications

import "time"

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Decided: Approved o Rejected. Una solicitud decidida nunca vuelve a Pending.
func (s Status) Decided() bool {
	return s == StatusApproved || s == StatusRejected
}

// Active: bloquea una nueva solicitud del mismo usuario a la misma mascota.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Application es una solicitud de adopción.
// PetName, UserName, UserEmail y ReviewedByName son snapshots: se copian al
// escribir y no se refrescan si cambia la mascota o el usuario.
type Application struct {
	ID string

	PetID   string
	PetName string

	UserID    string
	UserName  string
	UserEmail string

	Message string
	Status  Status

	ReviewedBy     string // vacío hasta la revisión
	ReviewedByName string

	CreatedAt time.Time
	UpdatedAt time.Time
}
