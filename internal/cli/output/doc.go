// Package output renders command replies for keymesh-cli.
//
// Four formats are supported:
//
//   - raw: redis-cli style text, the interactive default
//   - table: aligned columns, with stream entries split into ID and FIELDS
//   - json: ToValue(reply) as indented JSON
//   - yaml: ToValue(reply) as YAML
//
// Structured formats encode error replies as {"error": "..."} so scripts
// can tell them apart from string values.
package output
