// Package model defines the field descriptors renderers consume and the
// walker that derives them from a schema. Descriptors form a tree mirroring
// schema nesting: objects become fieldsets, arrays describe their item
// template once under a wildcard key segment, and primitives become leaves
// whose Type is inferred from the schema (`enum` becomes a select, `format`
// picks a specialised decorator). Form hints declared under the
// `x-schemaform` keyword flow into Descriptor.Hints and may override the
// inferred type, placeholder, title visibility, and destroy strategy.
package model
