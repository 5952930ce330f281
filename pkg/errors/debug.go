package errors

import stdErrors "errors"

// DebugDump flattens an error chain for structured logging.
type DebugDump struct {
	Code       string
	TopMessage string
	Chain      []string
}

// Dump walks the unwrap chain and collects each message.
func Dump(err error) DebugDump {
	dump := DebugDump{}
	if err == nil {
		return dump
	}

	dump.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		dump.Code = string(typed.Code())
	}

	for current := err; current != nil; current = stdErrors.Unwrap(current) {
		dump.Chain = append(dump.Chain, current.Error())
	}
	return dump
}
