// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package backend

import "fmt"

// FrameKind identifies the payload variant of a Frame.
type FrameKind int

const (
	FramePing FrameKind = iota
	FrameText
	FrameBinary
)

func (k FrameKind) String() string {
	switch k {
	case FramePing:
		return "ping"
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	}
	return fmt.Sprintf("frame kind %d", int(k))
}

// Frame is an outbound message handed to the backend for transmission.
// Exactly one payload field is meaningful, selected by Kind.
type Frame struct {
	Kind FrameKind
	Text string
	Data []byte
}

// Ping returns a ping frame.
func Ping() Frame {
	return Frame{Kind: FramePing}
}

// Text returns a text frame carrying s.
func Text(s string) Frame {
	return Frame{Kind: FrameText, Text: s}
}

// Binary returns a binary frame carrying b.
func Binary(b []byte) Frame {
	return Frame{Kind: FrameBinary, Data: b}
}
