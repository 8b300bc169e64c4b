package adaptor

import (
	"errors"
	"net/http"

	domainErr "pizza-delivery/internal/domain/errors"
	"pizza-delivery/pkg/utils"

	"go.uber.org/zap"
)

// writeServiceError maps domain error kinds to HTTP responses. Unknown
// errors are logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, domainErr.ErrInvalidCredentials):
		log.Warn(operation+" failed - invalid credentials", zap.Error(err))
		utils.ResponseUnauthorized(w, domainErr.ErrInvalidCredentials.Error())

	case errors.Is(err, domainErr.ErrUnauthenticated):
		log.Warn(operation+" failed - unauthenticated", zap.Error(err))
		utils.ResponseUnauthorized(w, "Authentication required")

	case errors.Is(err, domainErr.ErrAccountInactive):
		log.Warn(operation+" failed - account deactivated", zap.Error(err))
		utils.ResponseForbidden(w, domainErr.ErrAccountInactive.Error())

	case errors.Is(err, domainErr.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, "You are not allowed to perform this operation")

	case errors.Is(err, domainErr.ErrOrderNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, "Order not found")

	case errors.Is(err, domainErr.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, "Not found")

	case errors.Is(err, domainErr.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error(), nil)

	case errors.Is(err, domainErr.ErrInvalidState):
		log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, domainErr.ErrConflict):
		log.Warn(operation+" failed - already exists", zap.Error(err))
		utils.ResponseConflict(w, "Username or email already registered")

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// decodeAndValidate reads a JSON body into req. It writes 400 for malformed
// JSON or 422 for field errors and reports whether the handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := utils.DecodeJSON(r, req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseUnprocessable(w, "Validation failed", validationErrors)
		return false
	}

	return true
}

// pathID parses the {id} URL parameter, writing 400 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := utils.ParseID(raw)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid order ID", nil)
		return 0, false
	}
	return id, true
}

// currentUsername returns the verified caller set by middleware.Authenticate.
func currentUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return "", false
	}
	return identity.Username, true
}
