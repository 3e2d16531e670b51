package models

// Order statuses, as stored and exposed on the wire.
const (
	StatusPending   = "En attente"
	StatusValidated = "Validée"
	StatusShipped   = "Expédiée"
	StatusCancelled = "Annulée"
)

// transitions is the allowed status graph. Expédiée and Annulée are
// terminal; cancelling does not restock consumed inventory.
var transitions = map[string][]string{
	StatusPending:   {StatusValidated, StatusCancelled},
	StatusValidated: {StatusShipped, StatusCancelled},
	StatusShipped:   {},
	StatusCancelled: {},
}

func IsValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another. Re-applying the current status is treated as a no-op and allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return IsValidStatus(to)
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
