package response

// Response is the standard API envelope. Every reply carries the success
// flag; failures carry a human-readable error instead of data.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// OK returns a success envelope wrapping the data.
func OK(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// Error returns a failure envelope with the given message.
func Error(err string) Response {
	return Response{
		Success: false,
		Error:   err,
	}
}
