// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

// Package closecode provides the numeric WebSocket close-code taxonomy and
// the normal/abnormal classification used to derive a connection's closure
// state.
package closecode

import "fmt"

// CloseCode is a WebSocket close code as defined by RFC 6455, section 7.4.
type CloseCode int

const (
	// Invalid is the zero value, reported when no close code was received
	// or the received code is outside the defined taxonomy.
	Invalid CloseCode = 0

	NormalClosure             CloseCode = 1000
	GoingAway                 CloseCode = 1001
	ProtocolError             CloseCode = 1002
	UnsupportedData           CloseCode = 1003
	NoStatusReceived          CloseCode = 1005
	AbnormalClosure           CloseCode = 1006
	InvalidFramePayloadData   CloseCode = 1007
	PolicyViolation           CloseCode = 1008
	MessageTooBig             CloseCode = 1009
	MandatoryExtensionMissing CloseCode = 1010
	InternalServerError       CloseCode = 1011
	TLSHandshakeFailure       CloseCode = 1015
)

// IsAbnormal reports whether the close code denotes a failure-induced
// closure.  NormalClosure, GoingAway and MandatoryExtensionMissing are the
// only codes treated as intentional; everything else, including Invalid,
// is abnormal.
func (c CloseCode) IsAbnormal() bool {
	switch c {
	case NormalClosure, GoingAway, MandatoryExtensionMissing:
		return false
	}
	return true
}

// FromInt maps a raw close code to a CloseCode, collapsing unknown values
// to Invalid.
func FromInt(code int) CloseCode {
	switch c := CloseCode(code); c {
	case NormalClosure, GoingAway, ProtocolError, UnsupportedData,
		NoStatusReceived, AbnormalClosure, InvalidFramePayloadData,
		PolicyViolation, MessageTooBig, MandatoryExtensionMissing,
		InternalServerError, TLSHandshakeFailure:
		return c
	}
	return Invalid
}

func (c CloseCode) String() string {
	switch c {
	case NormalClosure:
		return "normal closure"
	case GoingAway:
		return "going away"
	case ProtocolError:
		return "protocol error"
	case UnsupportedData:
		return "unsupported data"
	case NoStatusReceived:
		return "no status received"
	case AbnormalClosure:
		return "abnormal closure"
	case InvalidFramePayloadData:
		return "invalid frame payload data"
	case PolicyViolation:
		return "policy violation"
	case MessageTooBig:
		return "message too big"
	case MandatoryExtensionMissing:
		return "mandatory extension missing"
	case InternalServerError:
		return "internal server error"
	case TLSHandshakeFailure:
		return "TLS handshake failure"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("close code %d", int(c))
}
