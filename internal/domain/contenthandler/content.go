// Package contenthandler routes document payloads to the handlers able to
// store and retrieve them. Every document goes to the default unstructured
// handler; documents whose type and format codes match a registered discrete
// handler are additionally parsed into structured clinical data.
package contenthandler

import (
	"github.com/openshr/xds-repository/internal/platform/ebxml"
)

// Content is one document payload in flight: the raw bytes plus the
// classification codes and mime type that pick its handler. Content is
// transient, constructed per request; persistence belongs to the handler.
type Content struct {
	ContentID  string           `json:"content_id"`
	Payload    []byte           `json:"payload"`
	TypeCode   ebxml.CodedValue `json:"type_code"`
	FormatCode ebxml.CodedValue `json:"format_code"`
	MimeType   string           `json:"mime_type"`
}
