// Package schemas embeds the JSON Schemas used to validate taxonomy and
// catalog data files.
package schemas

import _ "embed"

//go:embed taxonomy.schema.json
var TaxonomySchemaJSON string

//go:embed catalog.schema.json
var CatalogSchemaJSON string
