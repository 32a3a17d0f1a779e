package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	TooManyRequests  Code = 100010

	// Token codes
	Disabled         Code = 200001
	Expired          Code = 200002
	TooEarly         Code = 200003
	AlreadyRedeemed  Code = 200004
	Exhausted        Code = 200005
	SystemOff        Code = 200006
	InvalidSignature Code = 200007
	Timeout          Code = 200008
	NotRevealed      Code = 200009

	// Batch codes
	NoActivePrizes Code = 300001

	// Roulette codes
	SessionClosed Code = 400001
)
