package applications

// Eligibility resume el historial de un usuario con una mascota.
type Eligibility int

const (
	EligibilityNone Eligibility = iota
	EligibilityPriorRejected
	EligibilityPriorPending
	EligibilityPriorApproved
)

func (e Eligibility) String() string {
	switch e {
	case EligibilityPriorRejected:
		return "prior_rejected"
	case EligibilityPriorPending:
		return "prior_pending"
	case EligibilityPriorApproved:
		return "prior_approved"
	default:
		return "none"
	}
}

// Classify es pura. Con datos sucios (varias filas) gana Approved > Pending > Rejected.
func Classify(history []Application) Eligibility {
	out := EligibilityNone
	for _, a := range history {
		var e Eligibility
		switch a.Status {
		case StatusApproved:
			e = EligibilityPriorApproved
		case StatusPending:
			e = EligibilityPriorPending
		case StatusRejected:
			e = EligibilityPriorRejected
		default:
			continue
		}
		if e > out {
			out = e
		}
	}
	return out
}

// Err traduce la clasificación al error de Submit (nil = puede aplicar).
func (e Eligibility) Err() error {
	switch e {
	case EligibilityPriorRejected:
		return ErrDuplicateRejected
	case EligibilityPriorApproved:
		return ErrAlreadyApproved
	case EligibilityPriorPending:
		return ErrAlreadyPending
	default:
		return nil
	}
}
