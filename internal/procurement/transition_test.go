package procurement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"facility-asset-backend/internal/model"
)

var allStatuses = []model.RequestStatus{
	model.StatusDraft,
	model.StatusRequested,
	model.StatusApproved,
	model.StatusRejected,
	model.StatusPurchased,
	model.StatusCompleted,
}

func TestValidateTransition(t *testing.T) {
	allowed := map[[2]model.RequestStatus]bool{
		{model.StatusDraft, model.StatusRequested}:     true,
		{model.StatusRequested, model.StatusApproved}:  true,
		{model.StatusRequested, model.StatusRejected}:  true,
		{model.StatusApproved, model.StatusRejected}:   true,
		{model.StatusApproved, model.StatusPurchased}:  true,
		{model.StatusPurchased, model.StatusCompleted}: true,
	}

	// Every pair not in the allowed set must fail, including self loops.
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			err := ValidateTransition(from, to)
			if allowed[[2]model.RequestStatus{from, to}] {
				assert.NoErrorf(t, err, "%s -> %s should be allowed", from, to)
			} else {
				assert.Errorf(t, err, "%s -> %s should be rejected", from, to)
				var transitionErr *TransitionError
				assert.ErrorAs(t, err, &transitionErr)
				assert.Equal(t, from, transitionErr.From)
				assert.Equal(t, to, transitionErr.To)
			}
		}
	}
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, from := range []model.RequestStatus{model.StatusRejected, model.StatusCompleted} {
		for _, to := range allStatuses {
			assert.Errorf(t, ValidateTransition(from, to), "%s is terminal, %s -> %s must fail", from, from, to)
		}
	}
}
