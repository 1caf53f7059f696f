package client

import (
	"github.com/nyaws/awsclient/anomaly"
	"github.com/nyaws/awsclient/internal/protocol"
)

// classifyError maps a protocol-parsed error response to an anomaly
// category using the default HTTP status-code table: codes below 400 are
// unreachable here (the caller only calls this for status >= 400), 400
// maps to Incorrect, 403 to Forbidden, 404 to NotFound, 409 to Conflict,
// 429 and 503 to Busy (spec.md §7: "429/503 → busy"), other 5xx to Fault
// except 502/504 which are Unavailable. A per-service
// ErrorCategoryOverride extension point was considered (see DESIGN.md
// Open Questions) but left unimplemented: no descriptor in this repo
// needs a status code mapped outside this table.
func classifyError(info *protocol.ErrorInfo) *anomaly.Anomaly {
	category := categoryForStatus(info.StatusCode)
	message := info.Message
	if message == "" {
		message = info.Code
	}
	return anomaly.New(category, message,
		anomaly.WithData("code", info.Code),
		anomaly.WithData("status_code", info.StatusCode))
}

func categoryForStatus(status int) anomaly.Category {
	switch status {
	case 400:
		return anomaly.Incorrect
	case 403:
		return anomaly.Forbidden
	case 404:
		return anomaly.NotFound
	case 409:
		return anomaly.Conflict
	case 429, 503:
		return anomaly.Busy
	case 502, 504:
		return anomaly.Unavailable
	}
	switch {
	case status >= 500:
		return anomaly.Fault
	case status >= 400:
		return anomaly.Incorrect
	default:
		return anomaly.Fault
	}
}
