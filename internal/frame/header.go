package frame

import "github.com/shake-karrot/kafkabroker/internal/kbin"

// RequestHeader is the decoded form of every request's header, legacy
// (v1, no tagged fields) or flexible (v2, trailing tagged-fields section).
type RequestHeader struct {
	ApiKey        int16
	ApiVersion    int16
	CorrelationID int32
	ClientID      *string
	TagFields     []kbin.RawTaggedField
}

// DecodeRequestHeader reads a RequestHeader from r. flexible selects
// whether a tagged-fields section follows the client ID.
func DecodeRequestHeader(r *kbin.Reader, flexible bool) RequestHeader {
	var h RequestHeader
	h.ApiKey = r.Int16()
	h.ApiVersion = r.Int16()
	h.CorrelationID = r.Int32()
	h.ClientID = r.NullableLegacyString()
	if flexible {
		h.TagFields = r.TagSection()
	}
	return h
}

// Encode writes h to w in the shape flexible selects.
func (h RequestHeader) Encode(w *kbin.Writer, flexible bool) {
	w.Int16(h.ApiKey)
	w.Int16(h.ApiVersion)
	w.Int32(h.CorrelationID)
	w.NullableLegacyString(h.ClientID)
	if flexible {
		w.EmptyTagSection()
	}
}

// ResponseHeader is the decoded form of every response's header: v0 carries
// only the correlation ID, v1 (flexible) adds a trailing tagged-fields
// section. Per spec.md's documented convention, ApiVersions responses never
// carry the tagged-fields section even at flexible request versions, since
// a client negotiating versions cannot yet know whether the broker speaks
// the flexible header.
type ResponseHeader struct {
	CorrelationID int32
	TagFields     []kbin.RawTaggedField
}

// DecodeResponseHeader reads a ResponseHeader from r.
func DecodeResponseHeader(r *kbin.Reader, flexible bool) ResponseHeader {
	var h ResponseHeader
	h.CorrelationID = r.Int32()
	if flexible {
		h.TagFields = r.TagSection()
	}
	return h
}

// Encode writes h to w in the shape flexible selects.
func (h ResponseHeader) Encode(w *kbin.Writer, flexible bool) {
	w.Int32(h.CorrelationID)
	if flexible {
		w.EmptyTagSection()
	}
}
