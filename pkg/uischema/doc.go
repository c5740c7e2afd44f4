// Package uischema parses form layouts: ordered lists whose entries are key
// references (`"address.city"`), inline descriptors (`{"key": "email",
// "title": "Work email"}`), or the wildcard `"*"` standing for every schema
// field not referenced elsewhere. Layouts are JSON or YAML and may be grouped
// into a named Store loaded from an fs.FS.
package uischema
