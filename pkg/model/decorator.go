package model

// Decorator enriches resolved descriptors after the schema-derived structure
// has been merged with the layout and before ids are assigned.
type Decorator interface {
	Decorate(descriptors []*Descriptor) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func([]*Descriptor) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(descriptors []*Descriptor) error {
	return fn(descriptors)
}
