// Package reliability classifies upstream failures.
package reliability

// IsTransientHTTPStatus reports whether an upstream HTTP status may
// clear on a later attempt: throttling or server-side failures.
// Client errors and 501 are permanent.
func IsTransientHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
