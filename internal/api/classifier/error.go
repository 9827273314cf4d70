package classifier

import (
	"MemeShield/pkg/response"
	"net/http"
)

var (
	// ErrNoImageProvided and ErrModelNotLoaded carry the exact messages
	// existing clients match on.
	ErrNoImageProvided = response.NewError(http.StatusBadRequest, "No image provided")
	ErrModelNotLoaded  = response.NewError(http.StatusInternalServerError, "Model not loaded")

	ErrDetectorTimeout = response.NewError(http.StatusGatewayTimeout, "detector timed out")
)
