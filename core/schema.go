package core

import (
	"encoding/json"
	"fmt"
)

// ValidationError describes a profile field that failed shape validation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindBool
)

// requiredProfileFields is the shape a decoded profile object must satisfy
// before a FINAL_ANSWER is accepted. JSON numbers decode to float64, so
// integer counts and the engagement rate share kindNumber.
var requiredProfileFields = []struct {
	name string
	kind fieldKind
}{
	{"username", kindString},
	{"followers_count", kindNumber},
	{"following_count", kindNumber},
	{"media_count", kindNumber},
	{"is_private", kindBool},
	{"is_verified", kindBool},
	{"engagement_rate", kindNumber},
	{"profile_picture_url", kindString},
}

// ValidateProfileShape checks that raw decodes to a JSON object carrying
// every required profile field with the right type. It is used by the
// verification step and fails closed: any decode or shape problem yields an
// error.
func ValidateProfileShape(raw json.RawMessage) error {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("profile is not a JSON object: %w", err)
	}
	for _, f := range requiredProfileFields {
		value, ok := obj[f.name]
		if !ok {
			return &ValidationError{Field: f.name, Message: "missing required field"}
		}
		switch f.kind {
		case kindString:
			if _, ok := value.(string); !ok {
				return &ValidationError{Field: f.name, Message: "expected a string"}
			}
		case kindNumber:
			if _, ok := value.(float64); !ok {
				return &ValidationError{Field: f.name, Message: "expected a number"}
			}
		case kindBool:
			if _, ok := value.(bool); !ok {
				return &ValidationError{Field: f.name, Message: "expected a boolean"}
			}
		}
	}
	return nil
}
