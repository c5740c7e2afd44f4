// Package decorators selects the template each descriptor type renders with.
//
// Lookup runs through four tiers: templates registered with Register, the
// active go-theme manifest ("decorators.<type>" entries in Templates), the
// embedded built-ins, and finally the fallback type ("generic" by default).
// Built-in decorators are composed from the fragments under
// templates/fragments; callers can compose their own with Compose and
// RegisterComposed.
//
// Templates are pongo2 sources. Renderers execute them with a "field" view of
// the descriptor, "children" holding rendered child markup and, for arrays,
// "items" holding one rendered entry per element.
package decorators
