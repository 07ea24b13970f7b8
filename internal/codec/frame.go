package codec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/infincia/netrng/internal/domain"
)

// HeaderSize is the size of the big-endian length prefix.
const HeaderSize = 4

// MaxFrameSize bounds the payload a peer may announce. It leaves room for a
// 1 MiB sample plus the msgpack envelope.
const MaxFrameSize = 1<<20 + 64

// ErrFrameTooLarge marks a length prefix above MaxFrameSize. The payload is
// left unread, so the stream cannot be resumed.
var ErrFrameTooLarge = fmt.Errorf("frame too large: %w", domain.ErrMalformedMessage)

// WriteFrame writes payload preceded by its length in a single Write call.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("write frame of %d bytes: %w", len(payload), domain.ErrMalformedMessage)
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads exactly one frame from r and returns its payload.
// I/O errors are returned unchanged so callers can tell timeouts and EOF
// apart; an oversized header yields ErrFrameTooLarge, which also matches
// domain.ErrMalformedMessage.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("frame header announces %d bytes: %w", n, ErrFrameTooLarge)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
