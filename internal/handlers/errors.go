package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"clanledger/internal/service"
)

func respondWithError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		slog.Error(userMsg, "error", err)
	}
	http.Error(w, userMsg, status)
}

// statusForServiceError maps service sentinel errors onto HTTP status
// codes; anything unrecognized is a 500.
func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrFamilyNotFound),
		errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrContributionNotFound),
		errors.Is(err, service.ErrObligationMissing),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrMeetingNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotYourObligation):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrObligationSettled),
		errors.Is(err, service.ErrObligationInFlight),
		errors.Is(err, service.ErrAmountExceedsOwed),
		errors.Is(err, service.ErrGatewayMethod),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
