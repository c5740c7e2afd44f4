// Package openapi extracts form schemas from OpenAPI 3 documents. The
// document is loaded and validated with kin-openapi, while the selected
// schema is resolved over the ordered decoding so property order survives.
package openapi
