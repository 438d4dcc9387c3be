package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Action is a custom verb on the potholes collection.
type Action int

const (
	ActionReport Action = iota + 1
	ActionAlert
)

var (
	// ErrInvalidActionFormat means the action token is missing or lacks the ':' prefix.
	ErrInvalidActionFormat = errors.New("invalid action format")
	// ErrUnsupportedAction means the token is well formed but names no known action.
	ErrUnsupportedAction = errors.New("unsupported action")
	// ErrInvalidBase64 means the image payload is not canonical base64.
	ErrInvalidBase64 = errors.New("invalid base64")
)

// FieldError names the request element that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// ParseAction parses the text following "potholes" in the path, e.g. ":report".
func ParseAction(token string) (Action, error) {
	name, ok := strings.CutPrefix(token, ":")
	if !ok {
		return 0, ErrInvalidActionFormat
	}
	switch name {
	case "report":
		return ActionReport, nil
	case "alert":
		return ActionAlert, nil
	default:
		return 0, ErrUnsupportedAction
	}
}

// ParseCoordinates reads {"latitude": <number>, "longitude": <number>} from body.
// Latitude is checked first; numeric strings are rejected.
func ParseCoordinates(body []byte) (lat, long float64, err error) {
	fields, ok := decodeObject(body)
	if !ok {
		return 0, 0, &FieldError{Field: "latitude", Reason: "body must be a JSON object"}
	}
	if lat, err = coordinate(fields, "latitude", 90); err != nil {
		return 0, 0, err
	}
	if long, err = coordinate(fields, "longitude", 180); err != nil {
		return 0, 0, err
	}
	return lat, long, nil
}

func decodeObject(body []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func coordinate(fields map[string]any, name string, limit float64) (float64, error) {
	raw, present := fields[name]
	if !present {
		return 0, &FieldError{Field: name, Reason: name + " is required"}
	}
	num, isNum := raw.(json.Number)
	if !isNum {
		return 0, &FieldError{Field: name, Reason: name + " must be a number"}
	}
	v, err := num.Float64()
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Field: name, Reason: name + " must be a finite number"}
	}
	if v < -limit || v > limit {
		return 0, &FieldError{Field: name, Reason: fmt.Sprintf("%s must be between %g and %g", name, -limit, limit)}
	}
	return v, nil
}

// ParseID parses a positive base-10 int64.
func ParseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &FieldError{Field: field, Reason: field + " must be a positive integer"}
	}
	return id, nil
}

// ParseFloatParam parses a finite float64.
func ParseFloatParam(raw, field string) (float64, error) {
	if raw == "" {
		return 0, &FieldError{Field: field, Reason: field + " is required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Field: field, Reason: field + " must be a finite number"}
	}
	return v, nil
}

var base64Pattern = regexp.MustCompile(`^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$`)

// VerifyBase64 checks v against the canonical base64 grammar and decodes it.
// Empty strings and non-string values are rejected.
func VerifyBase64(v any) ([]byte, error) {
	s, isString := v.(string)
	if !isString || s == "" || !base64Pattern.MatchString(s) {
		return nil, ErrInvalidBase64
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidBase64
	}
	return data, nil
}

// ParseImageBody reads {"encoding": "<base64>"} and returns the decoded bytes.
// A body that is not an object or lacks the key yields a FieldError.
func ParseImageBody(body []byte) ([]byte, error) {
	fields, ok := decodeObject(body)
	if !ok {
		return nil, &FieldError{Field: "encoding", Reason: "body must be a JSON object"}
	}
	raw, present := fields["encoding"]
	if !present {
		return nil, &FieldError{Field: "encoding", Reason: "encoding is required"}
	}
	return VerifyBase64(raw)
}
