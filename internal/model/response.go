package model

import "time"

// Response is the uniform envelope for every API response.
// Successful payloads set Data; errors and cache invalidation set Message.
type Response struct {
	Success   bool        `json:"success"`
	Code      int         `json:"code"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Timestamp formats t the way every envelope reports time.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func NewSuccessResponse(data interface{}, now time.Time) Response {
	return Response{
		Success:   true,
		Code:      200,
		Data:      data,
		Timestamp: Timestamp(now),
	}
}

func NewMessageResponse(message string, now time.Time) Response {
	return Response{
		Success:   true,
		Code:      200,
		Message:   message,
		Timestamp: Timestamp(now),
	}
}

func NewErrorResponse(code int, message string, now time.Time) Response {
	return Response{
		Success:   false,
		Code:      code,
		Message:   message,
		Timestamp: Timestamp(now),
	}
}
