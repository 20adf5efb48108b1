// Package detect sniffs stdin to determine the input format.
package detect

import (
	"bytes"
	"encoding/json"
)

// Format represents a recognized input format.
type Format int

const (
	Unknown    Format = iota
	Events            // runner event NDJSON ({"event": ...})
	GoTestJSON        // go test -json NDJSON stream
)

func (f Format) String() string {
	switch f {
	case Events:
		return "events"
	case GoTestJSON:
		return "gotest"
	default:
		return "unknown"
	}
}

// Parse maps a --input flag value to a Format. "auto" and "" map to Unknown,
// meaning the caller should sniff.
func Parse(name string) (Format, bool) {
	switch name {
	case "", "auto":
		return Unknown, true
	case "events":
		return Events, true
	case "gotest":
		return GoTestJSON, true
	default:
		return Unknown, false
	}
}

// Sniff examines the first line of input to determine format.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 || data[0] != '{' {
		return Unknown
	}

	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	var probe struct {
		Event   string `json:"event"`
		Action  string `json:"Action"`
		Package string `json:"Package"`
	}
	if err := json.Unmarshal(firstLine, &probe); err != nil {
		return Unknown
	}

	if probe.Event != "" {
		return Events
	}

	validActions := map[string]bool{
		"start": true, "run": true, "pause": true, "cont": true,
		"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
	}
	if validActions[probe.Action] {
		return GoTestJSON
	}
	return Unknown
}
