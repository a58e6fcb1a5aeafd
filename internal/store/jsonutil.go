package store

import (
	"encoding/json"
	"fmt"
)

// MarshalStrings converts an ordered string slice to JSON TEXT for storage
// (item tags/aliases). A nil slice marshals to "[]", never "null", so reads
// never need a nil check.
func MarshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// UnmarshalStrings is the inverse of MarshalStrings.
func UnmarshalStrings(data string) ([]string, error) {
	if data == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// MarshalPayload converts a free-form JSON object to TEXT for storage
// (change_log.payload, sync_conflicts.client_payload, activity metadata).
func MarshalPayload(payload map[string]any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// UnmarshalPayload is the inverse of MarshalPayload.
func UnmarshalPayload(data string) (map[string]any, error) {
	if data == "" {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}
