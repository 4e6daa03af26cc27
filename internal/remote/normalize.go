package remote

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/valyala/fastjson"
)

// unknownErrorMessage is used when an error body carries no usable message
const unknownErrorMessage = "unknown error"

// maxRawDetail caps how much of a non-JSON error body is kept as detail
const maxRawDetail = 2048

// detailKeys are tried in order for a diagnostic blob inside "detail"
var detailKeys = []string{"stderr", "stdout", "traceback"}

// normalizeError turns a non-success response into a Failure. The message
// prefers detail.error, then a string detail, then a top-level error field.
func (c *Client) normalizeError(status int, body []byte) *Failure {
	f := &Failure{Kind: FailureRemote, Status: status, Message: unknownErrorMessage}

	p := c.parser.Get()
	defer c.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		if raw := strings.TrimSpace(string(body)); raw != "" {
			if len(raw) > maxRawDetail {
				raw = raw[:maxRawDetail]
			}
			f.Detail = raw
		}
		return f
	}

	detail := v.Get("detail")
	switch {
	case detail == nil:
		if msg := strings.TrimSpace(string(v.GetStringBytes("error"))); msg != "" {
			f.Message = msg
		}

	case detail.Type() == fastjson.TypeString:
		if msg := strings.TrimSpace(string(detail.GetStringBytes())); msg != "" {
			f.Message = msg
		}

	case detail.Type() == fastjson.TypeObject:
		if msg := strings.TrimSpace(string(detail.GetStringBytes("error"))); msg != "" {
			f.Message = msg
		}
		for _, key := range detailKeys {
			if blob := strings.TrimSpace(string(detail.GetStringBytes(key))); blob != "" {
				f.Detail = blob
				break
			}
		}

	case detail.Type() == fastjson.TypeArray:
		// Request validation errors: [{"loc": [...], "msg": "..."}]
		items, _ := detail.Array()
		if len(items) > 0 {
			if msg := strings.TrimSpace(string(items[0].GetStringBytes("msg"))); msg != "" {
				f.Message = msg
			}
		}
	}

	return f
}

// transportFailure describes a request that never got a response
func transportFailure(err error) *Failure {
	msg := err.Error()
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		msg = uerr.Err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	}
	return &Failure{Kind: FailureTransport, Message: msg}
}
