package errs

import "net/http"

// errorMap holds the message and HTTP status template for every error code.
var errorMap = map[int]CustomError{
	ErrInvalidParams: {
		Code:    ErrInvalidParams,
		Message: "Invalid request parameters.",
		Status:  http.StatusBadRequest,
	},
	ErrFormParseFailed: {
		Code:    ErrFormParseFailed,
		Message: "Failed to parse form data.",
		Status:  http.StatusBadRequest,
	},
	ErrRequestEntityTooLarge: {
		Code:    ErrRequestEntityTooLarge,
		Message: "Request body too large.",
		Status:  http.StatusRequestEntityTooLarge,
	},
	ErrRateLimitExceeded: {
		Code:    ErrRateLimitExceeded,
		Message: "Too many requests. Please slow down.",
		Status:  http.StatusTooManyRequests,
	},

	ErrEmptyMessage: {
		Code:    ErrEmptyMessage,
		Message: "Message must contain text or an attachment.",
		Status:  http.StatusBadRequest,
	},
	ErrMessageContentTooLong: {
		Code:    ErrMessageContentTooLong,
		Message: "Message content exceeds the maximum allowed length.",
		Status:  http.StatusBadRequest,
	},
	ErrMessageNotFound: {
		Code:    ErrMessageNotFound,
		Message: "Message not found.",
		Status:  http.StatusNotFound,
	},
	ErrUsernameInvalid: {
		Code:    ErrUsernameInvalid,
		Message: "Username is missing or invalid.",
		Status:  http.StatusBadRequest,
	},

	ErrFileTypeNotAllowed: {
		Code:    ErrFileTypeNotAllowed,
		Message: "File type is not allowed.",
		Status:  http.StatusUnsupportedMediaType,
	},
	ErrFileSizeTooLarge: {
		Code:    ErrFileSizeTooLarge,
		Message: "File exceeds the maximum allowed size of %d MB.",
		Status:  http.StatusRequestEntityTooLarge,
	},
	ErrFileStorageFailed: {
		Code:    ErrFileStorageFailed,
		Message: "Failed to store the uploaded file.",
		Status:  http.StatusBadGateway,
	},

	ErrStoreUnavailable: {
		Code:    ErrStoreUnavailable,
		Message: "Durable store is unreachable.",
		Status:  http.StatusServiceUnavailable,
	},
	ErrUnknown: {
		Code:    ErrUnknown,
		Message: "Internal server error.",
		Status:  http.StatusInternalServerError,
	},
}
