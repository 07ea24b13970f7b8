package codec

import (
	"io"

	"github.com/infincia/netrng/internal/domain"
)

// WriteRequest encodes req and writes it as one frame.
func WriteRequest(w io.Writer, req domain.Request) error {
	b, err := EncodeRequest(req)
	if err != nil {
		return err
	}
	return WriteFrame(w, b)
}

// ReadRequest reads one frame and decodes it as a request.
func ReadRequest(r io.Reader) (domain.Request, error) {
	b, err := ReadFrame(r)
	if err != nil {
		return domain.Request{}, err
	}
	return DecodeRequest(b)
}

// WriteResponse encodes resp and writes it as one frame.
func WriteResponse(w io.Writer, resp domain.Response) error {
	b, err := EncodeResponse(resp)
	if err != nil {
		return err
	}
	return WriteFrame(w, b)
}

// ReadResponse reads one frame and decodes it as a response.
func ReadResponse(r io.Reader) (domain.Response, error) {
	b, err := ReadFrame(r)
	if err != nil {
		return domain.Response{}, err
	}
	return DecodeResponse(b)
}
