/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system errors both internally and
toward clients of the HTTP API.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrFormParseFailed indicates failure to parse multipart form data.
	ErrFormParseFailed = 1002

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1003

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1004
)

// 2xxx: Messaging Business Logic Errors
const (
	// ErrEmptyMessage indicates a message carrying neither text nor an attachment.
	ErrEmptyMessage = 2001

	// ErrMessageContentTooLong indicates the message text exceeded the maximum length limit.
	ErrMessageContentTooLong = 2002

	// ErrMessageNotFound indicates that a message id did not resolve against the active store.
	ErrMessageNotFound = 2003

	// ErrUsernameInvalid indicates a missing or malformed username.
	ErrUsernameInvalid = 2101
)

// 3xxx: File and Attachment Errors
const (
	// ErrFileTypeNotAllowed indicates the uploaded file's type or extension is not permitted.
	ErrFileTypeNotAllowed = 3001

	// ErrFileSizeTooLarge indicates the uploaded file exceeds the per-file size limit (%d MB).
	ErrFileSizeTooLarge = 3002

	// ErrFileStorageFailed indicates the storage backend rejected or failed the upload.
	ErrFileStorageFailed = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrStoreUnavailable indicates the durable store could not be reached.
	// Never surfaced to websocket clients; operations fall back to the
	// volatile store instead.
	ErrStoreUnavailable = 5001

	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
