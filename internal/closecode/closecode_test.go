// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package closecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAbnormal(t *testing.T) {
	tests := []struct {
		description string
		code        CloseCode
		abnormal    bool
	}{
		{
			description: "normal closure",
			code:        NormalClosure,
		}, {
			description: "going away",
			code:        GoingAway,
		}, {
			description: "mandatory extension missing",
			code:        MandatoryExtensionMissing,
		}, {
			description: "protocol error",
			code:        ProtocolError,
			abnormal:    true,
		}, {
			description: "unsupported data",
			code:        UnsupportedData,
			abnormal:    true,
		}, {
			description: "no status received",
			code:        NoStatusReceived,
			abnormal:    true,
		}, {
			description: "abnormal closure",
			code:        AbnormalClosure,
			abnormal:    true,
		}, {
			description: "invalid frame payload data",
			code:        InvalidFramePayloadData,
			abnormal:    true,
		}, {
			description: "policy violation",
			code:        PolicyViolation,
			abnormal:    true,
		}, {
			description: "message too big",
			code:        MessageTooBig,
			abnormal:    true,
		}, {
			description: "internal server error",
			code:        InternalServerError,
			abnormal:    true,
		}, {
			description: "tls handshake failure",
			code:        TLSHandshakeFailure,
			abnormal:    true,
		}, {
			description: "invalid",
			code:        Invalid,
			abnormal:    true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.abnormal, tc.code.IsAbnormal())
		})
	}
}

func TestFromInt(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(NormalClosure, FromInt(1000))
	assert.Equal(TLSHandshakeFailure, FromInt(1015))
	assert.Equal(Invalid, FromInt(0))
	assert.Equal(Invalid, FromInt(1004))
	assert.Equal(Invalid, FromInt(4999))
}

func TestString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("normal closure", NormalClosure.String())
	assert.Equal("invalid", Invalid.String())
	assert.Equal("close code 1004", CloseCode(1004).String())
}
