package codec

import (
	"fmt"

	"gopkg.in/vmihailenco/msgpack.v2"

	"github.com/infincia/netrng/internal/domain"
)

// wireRequest is the msgpack shape of a request: {get: "sample"|"heartbeat"}.
type wireRequest struct {
	Get string `msgpack:"get"`
}

// wireResponse is the msgpack shape of a response:
// {push: "sample", sample: <bin>} or {push: "heartbeat"}.
type wireResponse struct {
	Push   string `msgpack:"push"`
	Sample []byte `msgpack:"sample,omitempty"`
}

// EncodeRequest serializes req.
func EncodeRequest(req domain.Request) ([]byte, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("encode request %q: %w", req.Kind, domain.ErrUnknownMessageKind)
	}
	return msgpack.Marshal(wireRequest{Get: string(req.Kind)})
}

// DecodeRequest parses a request record.
func DecodeRequest(b []byte) (domain.Request, error) {
	var w wireRequest
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return domain.Request{}, fmt.Errorf("decode request: %v: %w", err, domain.ErrMalformedMessage)
	}
	if w.Get == "" {
		return domain.Request{}, fmt.Errorf("decode request: missing get: %w", domain.ErrMalformedMessage)
	}
	kind := domain.RequestKind(w.Get)
	if !kind.Valid() {
		return domain.Request{Kind: kind}, fmt.Errorf("decode request %q: %w", w.Get, domain.ErrUnknownMessageKind)
	}
	return domain.Request{Kind: kind}, nil
}

// EncodeResponse serializes resp. A sample response must carry a payload.
func EncodeResponse(resp domain.Response) ([]byte, error) {
	switch resp.Kind {
	case domain.ResponseSample:
		if len(resp.Sample) == 0 {
			return nil, fmt.Errorf("encode response: empty sample: %w", domain.ErrMalformedMessage)
		}
		return msgpack.Marshal(wireResponse{Push: string(resp.Kind), Sample: resp.Sample})
	case domain.ResponseHeartbeat:
		return msgpack.Marshal(wireResponse{Push: string(resp.Kind)})
	default:
		return nil, fmt.Errorf("encode response %q: %w", resp.Kind, domain.ErrUnknownMessageKind)
	}
}

// DecodeResponse parses a response record.
func DecodeResponse(b []byte) (domain.Response, error) {
	var w wireResponse
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return domain.Response{}, fmt.Errorf("decode response: %v: %w", err, domain.ErrMalformedMessage)
	}
	switch kind := domain.ResponseKind(w.Push); kind {
	case "":
		return domain.Response{}, fmt.Errorf("decode response: missing push: %w", domain.ErrMalformedMessage)
	case domain.ResponseSample:
		if len(w.Sample) == 0 {
			return domain.Response{}, fmt.Errorf("decode response: sample without payload: %w", domain.ErrMalformedMessage)
		}
		return domain.SampleResponse(w.Sample), nil
	case domain.ResponseHeartbeat:
		return domain.HeartbeatResponse(), nil
	default:
		return domain.Response{Kind: kind}, fmt.Errorf("decode response %q: %w", w.Push, domain.ErrUnknownMessageKind)
	}
}
