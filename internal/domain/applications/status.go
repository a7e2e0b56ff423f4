package applications

import "pet-adoption/internal/domain/pets"

// RecomputeStatus deriva el status de la mascota de todas sus solicitudes.
// Adopted > Pending > Available.
func RecomputeStatus(apps []Application) pets.Status {
	status := pets.StatusAvailable
	for _, a := range apps {
		switch a.Status {
		case StatusApproved:
			return pets.StatusAdopted
		case StatusPending:
			status = pets.StatusPending
		}
	}
	return status
}
