package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// ErrTrailingData is returned when a body holds more than one JSON value.
var ErrTrailingData = errors.New("unexpected data after top-level JSON value")

// IsSuccess reports whether status is in the 2xx class.
func IsSuccess(statusCode int) bool {
	return statusCode >= constants.HTTPStatusOK && statusCode < constants.HTTPStatusMultipleChoices
}

// Decode parses a response body. An empty or whitespace-only body decodes
// to nil. Numbers are kept as json.Number.
func Decode(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any

	err := decoder.Decode(&value)
	if err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}

	_, err = decoder.Token()
	if !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	return value, nil
}

// Interpret classifies a response. Decoding is attempted first regardless
// of status, so an undecodable body is always a JSON response format error.
// A decodable body with a non-2xx status is an API error.
func Interpret(resp *Response) (any, error) {
	value, err := Decode(resp.Body)
	if err != nil {
		return nil, gitlab.NewJSONResponseFormatError(resp.StatusCode, resp.Body, err)
	}

	if !IsSuccess(resp.StatusCode) {
		return nil, gitlab.NewAPIError(resp.StatusCode, value)
	}

	return value, nil
}
