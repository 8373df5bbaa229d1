package response

// Response is the standard API response envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorData holds error details in a response
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success returns a successful response with data
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// SuccessWithMeta returns a successful response with data and metadata
func SuccessWithMeta(data, meta interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	}
}

// Error returns an error response with a code and message
func Error(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorData{
			Code:    code,
			Message: message,
		},
	}
}

// ErrorWithDetails returns an error response with additional details
func ErrorWithDetails(code, message string, details interface{}) Response {
	return Response{
		Success: false,
		Error: &ErrorData{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// BadRequest returns a validation error response
func BadRequest(message string) Response {
	return Error("BAD_REQUEST", message)
}

// NotFound returns a not found error response
func NotFound(message string) Response {
	return Error("NOT_FOUND", message)
}

// Unauthorized returns an unauthorized error response
func Unauthorized(message string) Response {
	return Error("UNAUTHORIZED", message)
}

// InternalError returns an internal server error response
func InternalError(message string) Response {
	return Error("INTERNAL_ERROR", message)
}
