// Package expr evaluates the small expression language used by layout
// conditions, onClick expressions and host helpers.
//
// Expressions support literals, identifiers, member and index access,
// function calls, list literals, unary ! and -, arithmetic, comparison and
// short-circuit logic. Missing identifiers and members evaluate to nil rather
// than failing, so `model.address.city == "Rome"` is safe on partial models.
//
// Interp renders {{ }} templates through pongo2.
package expr
