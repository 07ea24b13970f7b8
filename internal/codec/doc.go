// Package codec serializes netrng requests and responses and delimits them
// on a byte stream.
//
// Records are msgpack maps keyed by a discriminant: "get" for requests and
// "push" for responses. A sample response also carries the raw entropy under
// "sample".
//
// Each record travels in a frame: a 4-byte big-endian length header followed
// by exactly that many bytes. Raw entropy can contain any byte sequence, so
// frames are never located by scanning for a marker.
package codec
