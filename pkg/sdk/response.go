package sdk

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethanbaker/api/pkg/api_types"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  api_types.StatusType `json:"status"`          // Status message
	Code    int                  `json:"code"`            // Status code
	Message string               `json:"message"`         // Human-readable message
	Data    T                    `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any                  `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a JSON string
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NewSuccess creates a data-less success response
func NewSuccess(message string) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusSuccess,
		Code:    http.StatusOK,
		Message: message,
	}
}

// NewSuccessResponse creates a success response carrying data
func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  api_types.StatusSuccess,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	}
}

// NewCreatedResponse creates a 201 response carrying the created resource
func NewCreatedResponse[T any](message string, data T) ApiResponse[T] {
	r := NewSuccessResponse(message, data)
	r.Code = http.StatusCreated
	return r
}

// NewErrorResponse creates an error response. Go errors are rendered as their message
// since the error interface does not serialise.
func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	if e, ok := err.(error); ok {
		err = e.Error()
	}

	return ApiResponse[any]{
		Status:  api_types.StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

// Err converts a non-success response into a Go error
func (r ApiResponse[T]) Err() error {
	switch r.Status {
	case api_types.StatusFail, api_types.StatusError:
		if r.Error != nil {
			if s, ok := r.Error.(string); ok {
				return errors.New(r.Message + ": " + s)
			}
		}
		return errors.New(r.Message)
	}
	return nil
}
