// Package session holds the client-side helpers behind the session detail view.
package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pysugar/nexus-console/internal/db/models"
)

// ExportKind selects which captured payload is exported.
type ExportKind string

const (
	ExportRequest  ExportKind = "request"
	ExportMessages ExportKind = "messages" // legacy export of the extracted messages
)

// ExportFilename names a downloaded payload, e.g. session-0123abcd-seq-7-request.json.
func ExportFilename(sessionID string, sequence int, kind ExportKind) string {
	if kind != ExportMessages {
		kind = ExportRequest
	}
	short := sessionID
	if r := []rune(short); len(r) > 8 {
		short = string(r[:8])
	}
	return fmt.Sprintf("session-%s-seq-%d-%s.json", short, sequence, kind)
}

// MarshalExport renders v as JSON indented by two spaces. <, > and & are
// written as is.
func MarshalExport(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ExportPayload picks the payload of kind from d. It returns nil when nothing was captured.
func ExportPayload(d *models.SessionDetails, kind ExportKind) json.RawMessage {
	if d == nil {
		return nil
	}
	raw := d.RequestBody
	if kind == ExportMessages {
		raw = d.Messages
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
