package core

import "errors"

var (
	// ErrNoAgentFound is returned when no descriptor can be resolved for a task,
	// either because the catalog is empty or the embedding call failed.
	ErrNoAgentFound = errors.New("no agent found")

	// ErrTradeNotFound is returned when a trade record does not exist.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrFieldNotFound guards single-field updates against creating new keys.
	ErrFieldNotFound = errors.New("the specified field does not exist in the trade record")

	// ErrMissingTradeID is returned when a stage cannot find the trade id of a prior stage.
	ErrMissingTradeID = errors.New("missing trade id")

	// ErrMissingInput is returned when a required operation argument is empty.
	ErrMissingInput = errors.New("missing required input")

	// ErrStoreUnavailable wraps backend failures of the record store.
	ErrStoreUnavailable = errors.New("record store unavailable")
)
