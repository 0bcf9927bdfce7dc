package dispatchevent

import "event-notifications/internal/common/validation"

var inputSchema = validation.MustCompileSchema(`{
	"type": "object",
	"required": ["tenantId", "event"],
	"properties": {
		"tenantId": {"type": "string", "minLength": 1},
		"event":    {"type": "string", "minLength": 1, "maxLength": 100},
		"context":  {"type": "object"}
	}
}`)
