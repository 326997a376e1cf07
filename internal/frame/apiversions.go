package frame

import "github.com/shake-karrot/kafkabroker/internal/kbin"

// ApiVersionsRequest is modeled across the legacy/flexible boundary in
// full: v0-v2 carry no body fields, v3 adds the client's software name and
// version as compact strings (KIP-511) plus the trailing tagged-fields
// section.
type ApiVersionsRequest struct {
	Version         int16
	ClientSoftwareName    string
	ClientSoftwareVersion string
}

func DecodeApiVersionsRequest(r *kbin.Reader, version int16) ApiVersionsRequest {
	req := ApiVersionsRequest{Version: version}
	if version >= 3 {
		req.ClientSoftwareName = r.CompactString()
		req.ClientSoftwareVersion = r.CompactString()
		r.TagSection()
	}
	return req
}

func (req ApiVersionsRequest) Encode(w *kbin.Writer) {
	if req.Version >= 3 {
		w.CompactString(req.ClientSoftwareName)
		w.CompactString(req.ClientSoftwareVersion)
		w.EmptyTagSection()
	}
}

// ApiVersionsResponseKey is one api_key entry of an ApiVersionsResponse.
type ApiVersionsResponseKey struct {
	ApiKey     int16
	MinVersion int16
	MaxVersion int16
}

// ApiVersionsResponse is the handler's self-description of supported APIs.
type ApiVersionsResponse struct {
	Version        int16
	ErrorCode      int16
	ApiKeys        []ApiVersionsResponseKey
	ThrottleTimeMs int32
}

func (resp ApiVersionsResponse) Encode(w *kbin.Writer) {
	flexible := resp.Version >= 3
	w.Int16(resp.ErrorCode)
	if flexible {
		w.CompactArrayLen(len(resp.ApiKeys))
	} else {
		w.ArrayLen(len(resp.ApiKeys))
	}
	for _, k := range resp.ApiKeys {
		w.Int16(k.ApiKey)
		w.Int16(k.MinVersion)
		w.Int16(k.MaxVersion)
		if flexible {
			w.EmptyTagSection()
		}
	}
	if resp.Version >= 1 {
		w.Int32(resp.ThrottleTimeMs)
	}
	if flexible {
		w.EmptyTagSection()
	}
}

func DecodeApiVersionsResponse(r *kbin.Reader, version int16) ApiVersionsResponse {
	resp := ApiVersionsResponse{Version: version}
	flexible := version >= 3
	resp.ErrorCode = r.Int16()
	var n int
	if flexible {
		n = r.CompactArrayLen()
	} else {
		n = r.ArrayLen()
	}
	resp.ApiKeys = make([]ApiVersionsResponseKey, 0, max0(n))
	for i := 0; i < n; i++ {
		var k ApiVersionsResponseKey
		k.ApiKey = r.Int16()
		k.MinVersion = r.Int16()
		k.MaxVersion = r.Int16()
		if flexible {
			r.TagSection()
		}
		resp.ApiKeys = append(resp.ApiKeys, k)
	}
	if version >= 1 {
		resp.ThrottleTimeMs = r.Int32()
	}
	if flexible {
		r.TagSection()
	}
	return resp
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
