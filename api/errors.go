/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRequestFailed matches every error returned by Client methods.
var ErrRequestFailed = errors.New("request failed")

// RequestError describes a call that did not produce a 2xx response.
// StatusCode is zero when no response was received at all.
type RequestError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s %s: status %d: %v", e.Op, e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Detail returns the backend's "detail" message when the error body carries one.
func (e *RequestError) Detail() string {
	if len(e.Body) == 0 {
		return ""
	}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	return body.Detail
}
