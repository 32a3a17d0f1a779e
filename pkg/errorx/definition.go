package errorx

import "net/http"

type definition struct {
	reason  string
	message string
	status  int
}

var definitions = map[Code]definition{
	BadRequest:       {"BAD_REQUEST", "Bad request", http.StatusBadRequest},
	BadResponse:      {"BAD_RESPONSE", "Bad response", http.StatusInternalServerError},
	PermissionDenied: {"PERMISSION_DENIED", "Permission denied", http.StatusForbidden},
	NotFound:         {"NOT_FOUND", "Not found", http.StatusNotFound},
	Unauthenticated:  {"UNAUTHENTICATED", "Unauthenticated", http.StatusUnauthorized},
	AlreadyExists:    {"ALREADY_EXISTS", "Already exists", http.StatusConflict},
	Internal:         {"INTERNAL", "Internal error", http.StatusInternalServerError},
	Unavailable:      {"UNAVAILABLE", "Unavailable", http.StatusServiceUnavailable},
	TooManyRequests:  {"TOO_MANY_REQUESTS", "Too many requests", http.StatusTooManyRequests},

	Disabled:         {"DISABLED", "This token is not active", http.StatusForbidden},
	Expired:          {"EXPIRED", "This token has expired", http.StatusGone},
	TooEarly:         {"TOO_EARLY", "This token is not valid yet", http.StatusTooEarly},
	AlreadyRedeemed:  {"ALREADY_REDEEMED", "This token was already redeemed", http.StatusConflict},
	Exhausted:        {"EXHAUSTED", "Nothing left to use", http.StatusConflict},
	SystemOff:        {"SYSTEM_OFF", "Redemption is currently closed", http.StatusLocked},
	InvalidSignature: {"INVALID_SIGNATURE", "This token is not valid", http.StatusBadRequest},
	Timeout:          {"TIMEOUT", "The token did not become ready in time", http.StatusRequestTimeout},
	NotRevealed:      {"NOT_REVEALED", "This token was not revealed yet", http.StatusConflict},

	NoActivePrizes: {"NO_ACTIVE_PRIZES", "No active prize has enough stock", http.StatusBadRequest},

	SessionClosed: {"SESSION_CLOSED", "The roulette session is closed", http.StatusConflict},
}

// Of returns the error for code with its fixed user-visible message.
func Of(code Code) Error {
	def, ok := definitions[code]
	if !ok {
		return Unknown
	}

	return Error{Code: uint64(code), Message: def.message}
}

// Reason returns the stable name of the code, e.g. ALREADY_REDEEMED.
func Reason(code Code) string {
	if def, ok := definitions[code]; ok {
		return def.reason
	}

	return "INTERNAL"
}

func status(code Code) int {
	if def, ok := definitions[code]; ok {
		return def.status
	}

	return http.StatusInternalServerError
}
