// internal/server/schemas.go
package server

// JSON Schemas for the mutation request bodies. Validated before any
// payload reaches the engine so malformed console requests fail fast with
// a field-level message.

const rejectLoanSchema = `{
	"type": "object",
	"properties": {
		"reason": {"type": "string", "minLength": 1}
	},
	"required": ["reason"],
	"additionalProperties": false
}`

const cardStatusSchema = `{
	"type": "object",
	"properties": {
		"status": {"type": "string", "enum": ["active", "blocked"]},
		"reason": {"type": "string"}
	},
	"required": ["status"],
	"additionalProperties": false
}`

const bulkActionSchema = `{
	"type": "object",
	"properties": {
		"action": {"type": "string", "enum": ["approve", "reject", "activate", "block"]},
		"reason": {"type": "string"}
	},
	"required": ["action"],
	"additionalProperties": false
}`

const toggleSelectionSchema = `{
	"type": "object",
	"properties": {
		"id": {"type": "string", "minLength": 1}
	},
	"required": ["id"],
	"additionalProperties": false
}`
