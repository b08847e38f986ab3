package api

import "errors"

// Error is a non-2xx response from the service.
type Error struct {
	Op         string
	StatusCode int
	// Message is the service's error string verbatim, or a generic
	// per-operation message when the response carried none.
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

type operation struct {
	name     string
	fallback string
}

var (
	opCheckConfig = operation{name: "check config", fallback: "Failed to check configuration"}
	opSaveConfig  = operation{name: "save config", fallback: "Failed to save configuration"}
	opUpload      = operation{name: "upload", fallback: "Failed to upload files"}
	opStart       = operation{name: "start processing", fallback: "Failed to start processing"}
	opProgress    = operation{name: "get progress", fallback: "Failed to get progress"}
	opResults     = operation{name: "get results", fallback: "Failed to get results"}
	opDownload    = operation{name: "download", fallback: "Failed to download file"}
)
