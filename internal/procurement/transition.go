package procurement

import "facility-asset-backend/internal/model"

// transitions is the full edge set of the approval pipeline. Anything not
// listed here, including self-transitions, is rejected; a redundant
// "completed -> completed" write would otherwise re-trigger provisioning.
var transitions = map[model.RequestStatus][]model.RequestStatus{
	model.StatusDraft:     {model.StatusRequested},
	model.StatusRequested: {model.StatusApproved, model.StatusRejected},
	model.StatusApproved:  {model.StatusRejected, model.StatusPurchased},
	model.StatusPurchased: {model.StatusCompleted},
	model.StatusRejected:  {},
	model.StatusCompleted: {},
}

// ValidateTransition checks whether a status change is permitted by the
// approval pipeline. It is a pure function over the two statuses.
func ValidateTransition(from, to model.RequestStatus) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}
