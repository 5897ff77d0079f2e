package engine

import "context"

// Board actions checked against the ownership policy.
const (
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// OwnershipInput describes one modification attempt.
type OwnershipInput struct {
	AccountID string
	Action    string
	OwnerID   string
}

// Evaluator decides whether an account may modify a record.
type Evaluator interface {
	// CanModify reports whether the account may perform the action on a record created by OwnerID.
	CanModify(ctx context.Context, in OwnershipInput) (bool, error)
}
