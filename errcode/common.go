package errcode

import "net/http"

// Module 1 holds codes shared by every module
const ModuleCommon = 1

var (
	ErrInternal     = Register(New(ModuleCommon, 1000, "common", "error.common.internal", "internal error", http.StatusInternalServerError))
	ErrBadRequest   = Register(New(ModuleCommon, 1001, "common", "error.common.bad_request", "malformed request", http.StatusBadRequest))
	ErrUnauthorized = Register(New(ModuleCommon, 1002, "common", "error.common.unauthorized", "authentication required", http.StatusUnauthorized))
	ErrNotFound     = Register(New(ModuleCommon, 1004, "common", "error.common.not_found", "resource not found", http.StatusNotFound))
	ErrValidation   = Register(New(ModuleCommon, 1010, "common", "error.common.validation_failed", "validation failed", http.StatusBadRequest))

	// ErrConfiguration is fatal at startup and never returned per request
	ErrConfiguration = Register(New(ModuleCommon, 1020, "common", "error.common.configuration", "invalid configuration", http.StatusInternalServerError))
)
