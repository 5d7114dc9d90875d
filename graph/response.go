package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Envelope is embedded in every response to surface a Graph error object
type Envelope struct {
	Error *APIError `json:"error,omitempty"`
}

// HasAPIError reports whether the body carried an error object
func (e Envelope) HasAPIError() bool {
	return e.Error != nil
}

// APIErrorType returns the error type, or "" when there is no error
func (e Envelope) APIErrorType() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Type
}

// APIErrorMessage returns the error message, or ""
func (e Envelope) APIErrorMessage() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Message
}

// APIErrorCode returns the error code, or 0
func (e Envelope) APIErrorCode() int {
	if e.Error == nil {
		return 0
	}
	return e.Error.Code
}

// APIErrorUserMessage returns the user-facing message, or ""
func (e Envelope) APIErrorUserMessage() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.UserMessage
}

// Node is the response of calls that return a single object ID
type Node struct {
	Envelope
	ID string `json:"id"`
}

// Success is the response of calls that return {"success": true}
type Success struct {
	Envelope
	Success bool `json:"success"`
}

// Number decodes JSON numbers that Graph sometimes sends as strings
type Number float64

// UnmarshalJSON accepts 5, 5.2, "5" and "5.2"; null and "" decode to 0
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Int truncates the number to an int
func (n Number) Int() int {
	return int(n)
}

// Float returns the number as float64
func (n Number) Float() float64 {
	return float64(n)
}
