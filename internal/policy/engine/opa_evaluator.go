package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const ownershipQuery = "data.taskboard.ownership.allow"

// OwnershipPolicy lets the creator of a record modify it and nobody else.
const OwnershipPolicy = `package taskboard.ownership

default allow := false

allow if {
	input.action in {"update", "delete"}
	input.subject.account_id != ""
	input.subject.account_id == input.resource.created_by
}
`

// OPAEvaluator evaluates the ownership policy with an in-process OPA Rego query prepared once.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy (OwnershipPolicy when empty) and prepares the allow query.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = OwnershipPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"ownership.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile ownership policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(ownershipQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare ownership policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// CanModify evaluates the policy. An undefined or non-boolean result denies.
func (e *OPAEvaluator) CanModify(ctx context.Context, in OwnershipInput) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(map[string]any{
		"action":   in.Action,
		"subject":  map[string]any{"account_id": in.AccountID},
		"resource": map[string]any{"created_by": in.OwnerID},
	}))
	if err != nil {
		return false, fmt.Errorf("eval ownership policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allow, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allow, nil
}

// HealthCheck evaluates a known-allowed input to confirm the engine answers.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	ok, err := e.CanModify(ctx, OwnershipInput{AccountID: "health", Action: ActionUpdate, OwnerID: "health"})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ownership policy denied its own health probe")
	}
	return nil
}
