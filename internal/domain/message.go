package domain

import "bytes"

// RequestKind discriminates client requests.
type RequestKind string

// Request kinds understood by the server. The string values are the
// discriminant carried on the wire under the "get" key.
const (
	RequestSample    RequestKind = "sample"
	RequestHeartbeat RequestKind = "heartbeat"
)

// Valid reports whether k is a request kind this version understands.
func (k RequestKind) Valid() bool {
	return k == RequestSample || k == RequestHeartbeat
}

// ResponseKind discriminates server responses.
type ResponseKind string

// Response kinds sent by the server under the "push" key.
const (
	ResponseSample    ResponseKind = "sample"
	ResponseHeartbeat ResponseKind = "heartbeat"
)

// Valid reports whether k is a response kind this version understands.
func (k ResponseKind) Valid() bool {
	return k == ResponseSample || k == ResponseHeartbeat
}

// Request is sent by a client once per cycle. Neither variant has a payload.
type Request struct {
	Kind RequestKind
}

// SampleRequest returns a request for one sample.
func SampleRequest() Request { return Request{Kind: RequestSample} }

// HeartbeatRequest returns a keepalive request that asks for no data.
func HeartbeatRequest() Request { return Request{Kind: RequestHeartbeat} }

// Response answers exactly one Request.
// Sample is set only when Kind is ResponseSample.
type Response struct {
	Kind   ResponseKind
	Sample []byte
}

// SampleResponse returns a response carrying sample.
func SampleResponse(sample []byte) Response {
	return Response{Kind: ResponseSample, Sample: sample}
}

// HeartbeatResponse returns a keepalive response.
func HeartbeatResponse() Response { return Response{Kind: ResponseHeartbeat} }

// Equal reports whether two responses carry the same kind and payload.
func (r Response) Equal(o Response) bool {
	return r.Kind == o.Kind && bytes.Equal(r.Sample, o.Sample)
}
