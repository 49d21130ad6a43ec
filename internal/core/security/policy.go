// Package security decides what an authenticated caller may do.
package security

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
)

// DefaultOverrideRule lets admins and managers record documents under
// another user id.
const DefaultOverrideRule = `"admin" in roles || "manager" in roles`

// ActorPolicy evaluates the actor-override rule. The rule is a CEL
// expression over user_id (int) and roles (list of string) that must yield
// a bool.
type ActorPolicy struct {
	rule    string
	program cel.Program
}

// NewActorPolicy compiles rule. An empty rule falls back to
// DefaultOverrideRule.
func NewActorPolicy(rule string) (*ActorPolicy, error) {
	if rule == "" {
		rule = DefaultOverrideRule
	}

	env, err := cel.NewEnv(
		cel.Variable("user_id", cel.IntType),
		cel.Variable("roles", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile override rule %q: %w", rule, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("override rule %q must return bool, got %s", rule, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build override program: %w", err)
	}
	return &ActorPolicy{rule: rule, program: prg}, nil
}

// Rule returns the compiled expression.
func (p *ActorPolicy) Rule() string { return p.rule }

// Privileged reports whether the caller may act as another user.
// Evaluation errors deny.
func (p *ActorPolicy) Privileged(userID id.ID, roles []string) bool {
	if roles == nil {
		roles = []string{}
	}
	out, _, err := p.program.Eval(map[string]any{
		"user_id": int64(userID),
		"roles":   roles,
	})
	if err != nil {
		return false
	}
	allowed, ok := out.Value().(bool)
	return ok && allowed
}

// Actor builds the entity.Actor for an authenticated caller.
func (p *ActorPolicy) Actor(userID id.ID, roles []string) entity.Actor {
	return entity.Actor{ID: userID, Roles: roles, Privileged: p.Privileged(userID, roles)}
}
