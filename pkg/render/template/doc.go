// Package template holds the engine seam between the HTML renderer and a
// concrete template language. Package pongo backs it with pongo2.
package template
