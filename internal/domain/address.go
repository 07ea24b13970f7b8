package domain

import (
	"net"
	"strconv"
)

// Address identifies a netrng server. The zero value means the address is not known yet.
type Address struct {
	Host string
	Port int
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Host == "" || a.Port <= 0
}

// String returns the address in host:port form, suitable for net.Dial.
func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ParseAddress parses a host:port string.
func ParseAddress(s string) (Address, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Address{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, err
	}
	if host == "" || port <= 0 || port > 65535 {
		return Address{}, &net.AddrError{Err: "invalid server address", Addr: s}
	}
	return Address{Host: host, Port: port}, nil
}
