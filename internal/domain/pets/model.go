package pets

import "time"

// Status del ciclo de adopción. Lo controla el motor de solicitudes,
// no se edita libremente desde el CRUD de mascotas.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusPending   Status = "Pending"
	StatusAdopted   Status = "Adopted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusPending, StatusAdopted:
		return true
	default:
		return false
	}
}

const (
	MinNameLen        = 2
	MinDescriptionLen = 10
	MaxAge            = 50
)

// Pet es una mascota del catálogo del refugio.
type Pet struct {
	ID string

	Name        string
	Species     string
	Breed       string
	Age         float64 // años; admite fracciones (cachorros)
	Description string
	Image       string // URL absoluta

	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}
