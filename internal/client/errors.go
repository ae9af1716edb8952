package client

import "errors"

var (
	// ErrInvalidAddressFormat is returned for a server address that is
	// neither "tcp://host:port", "unix:///path" nor a bare host:port.
	ErrInvalidAddressFormat = errors.New("invalid paracore server address")
	ErrInvalidTCPFormat     = errors.New("tcp address must be host:port")
	ErrUnsupportedNetwork   = errors.New("unsupported network type")

	// ErrConnectionFailed and ErrRequestFailed wrap transport errors from
	// the ScriptService connection and its calls.
	ErrConnectionFailed = errors.New("failed to connect to paracore server")
	ErrRequestFailed    = errors.New("script service request failed")
)
