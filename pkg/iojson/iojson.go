// Package iojson reads and writes JSON for command line interfaces.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

type errorReport struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// WriteWith writes obj to w as indented JSON. A marshal failure is reported
// on ew as a JSON error object.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_ = WriteLine(ew, errorReport{Message: "cannot encode output as JSON", Error: err.Error()})
		return fmt.Errorf("encode output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// WriteLine writes obj to w as a single line of compact JSON.
func WriteLine(w io.Writer, obj any) error {
	return json.NewEncoder(w).Encode(obj)
}
