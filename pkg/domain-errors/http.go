package domainerrors

import "net/http"

// ToHTTPStatus maps a domain code onto an HTTP status. Transport packages
// own the JSON envelope; this keeps the mapping in one place.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeBadRequest, CodeInvalidRange, CodeInvalidNameLength:
		return http.StatusBadRequest
	case CodeNotFound, CodeNoActiveSeason:
		return http.StatusNotFound
	case CodeAlreadyActive, CodeNotDraft, CodeNotActive, CodeSeasonNotOpen,
		CodeNameTaken, CodeAlreadyRegistered, CodeReplayedPayment, CodeConflict,
		CodeLastAdmin:
		return http.StatusConflict
	case CodePaymentNotVerified:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
