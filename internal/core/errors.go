package core

import (
	"errors"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrRegistryFull    = errors.New("room registry is full")
	ErrRoomNameExists  = errors.New("room name already in use")
	ErrRoomNameInvalid = errors.New("room name length invalid")
	ErrEmptyContent    = errors.New("content is empty")
	ErrSessionDetached = errors.New("session no longer in room")
)

// CoreError pairs a wire error byte with the text reported to the sender.
// Registry and dispatch operations return these so the transport can forward
// exactly one error frame per rejected command.
type CoreError struct {
	Code byte
	Text string
	err  error
}

func (e *CoreError) Error() string {
	return e.Text
}

func (e *CoreError) Unwrap() error {
	return e.err
}

// Frame renders the error as its wire representation.
func (e *CoreError) Frame() proto.Frame {
	return proto.ErrorFrame(e.Code, e.Text)
}

func coreError(code byte, text string, sentinel error) *CoreError {
	return &CoreError{Code: code, Text: text, err: sentinel}
}
