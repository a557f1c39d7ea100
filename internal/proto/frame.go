package proto

import "strings"

// Frame is one complete protocol unit. Cmd is a command or error byte;
// Content is opaque text without the terminator.
type Frame struct {
	Cmd     byte
	Content string
}

// Encode renders the frame as wire bytes. Content longer than
// MaxOutboundContentLen is truncated so a single frame can never exceed the
// advertised outbound bound.
func (f Frame) Encode() []byte {
	content := f.Content
	if len(content) > MaxOutboundContentLen {
		content = content[:MaxOutboundContentLen]
	}
	buf := make([]byte, 0, len(content)+4)
	buf = append(buf, f.Cmd, ' ')
	buf = append(buf, content...)
	buf = append(buf, terminator...)
	return buf
}

// ErrorFrame builds a server error frame for the given error byte.
func ErrorFrame(code byte, text string) Frame {
	return Frame{Cmd: code, Content: text}
}

const formatHint = "Correct format: [command char][space][message content]\\r\\n"

// ParseFrame validates a raw line (terminator already stripped) against the
// protocol and splits it into a Frame. A nil *WireError means the frame is
// well formed; the returned error carries the exact byte and text to report
// to the sender.
func ParseFrame(line []byte) (Frame, *WireError) {
	if len(line) < 3 {
		return Frame{}, &WireError{
			Code: ErrInvalidFormat,
			Text: "Message too short\n" + formatHint,
		}
	}
	if len(line)-2 > MaxContentLen {
		return Frame{}, &WireError{
			Code: ErrInvalidFormat,
			Text: "Invalid format: Message too long\n" + formatHint,
		}
	}
	if line[1] != ' ' {
		return Frame{}, &WireError{
			Code: ErrInvalidFormat,
			Text: "Missing space after command.\n" + formatHint,
		}
	}
	if line[0] < CmdExit || line[0] > CmdRoomMessage {
		return Frame{}, &WireError{
			Code: ErrInvalidFormat,
			Text: "Command not found\n" + formatHint,
		}
	}
	content := string(line[2:])
	if strings.TrimSpace(content) == "" {
		return Frame{}, &WireError{
			Code: ErrEmptyContent,
			Text: "Content is Empty\n" + formatHint,
		}
	}
	return Frame{Cmd: line[0], Content: content}, nil
}

// OversizeError is the violation reported when a sender streams an
// unterminated run past the inbound limit.
func OversizeError() *WireError {
	return &WireError{
		Code: ErrInvalidFormat,
		Text: "Invalid format: Message too long\n" + formatHint,
	}
}

// WireError is a protocol violation to be reported back to the sender as an
// error frame.
type WireError struct {
	Code byte
	Text string
}

func (e *WireError) Error() string {
	return e.Text
}

// Frame converts the violation into its wire representation.
func (e *WireError) Frame() Frame {
	return ErrorFrame(e.Code, e.Text)
}
