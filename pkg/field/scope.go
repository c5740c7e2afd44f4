package field

import (
	"github.com/goliatone/go-schemaform/pkg/expr"
	"github.com/goliatone/go-schemaform/pkg/registry"
)

// ExprParentScope returns a registry parent scope that evaluates expressions
// against base, with call locals layered on top.
func ExprParentScope(base expr.Scope) registry.ParentScope {
	return func(expression string, locals map[string]any) (any, error) {
		scope := make(expr.Scope, len(base)+len(locals))
		for key, value := range base {
			scope[key] = value
		}
		for key, value := range locals {
			scope[key] = value
		}
		return expr.Eval(expression, scope)
	}
}
