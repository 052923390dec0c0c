// Package wire implements the msgpack wire encoding for invocation and
// response records exchanged over the lattice bus.
package wire

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/latticerun/actorhost/types"
)

// DecodeErrorKind classifies a wire decoding failure.
type DecodeErrorKind int

const (
	// DecodeErrorMalformed indicates the bytes could not be parsed as
	// valid msgpack, or did not match the expected record shape.
	DecodeErrorMalformed DecodeErrorKind = iota
)

// DecodeError wraps a msgpack decoding failure. S1 of the invocation
// pipeline surfaces this as "Failed to deserialize invocation".
type DecodeError struct {
	Kind DecodeErrorKind
	Msg  string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is a wire decoding failure.
func IsDecodeError(err error) bool {
	var decErr *DecodeError
	return errors.As(err, &decErr)
}

// DecodeInvocation unmarshals a msgpack-encoded invocation body as
// received from the bus. Per S1 of the invocation pipeline, a failure
// here is not fatal to the instance: the caller turns it into a failure
// response.
func DecodeInvocation(body []byte) (*types.Invocation, error) {
	var inv types.Invocation
	if err := msgpack.Unmarshal(body, &inv); err != nil {
		return nil, &DecodeError{
			Kind: DecodeErrorMalformed,
			Msg:  "failed to deserialize invocation",
			Err:  err,
		}
	}
	return &inv, nil
}

// EncodeInvocation marshals an invocation to its wire form, symmetric
// with DecodeInvocation. Used by test harnesses and bus clients that
// originate invocations rather than just consume them.
func EncodeInvocation(inv *types.Invocation) ([]byte, error) {
	body, err := msgpack.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize invocation: %w", err)
	}
	return body, nil
}

// EncodeInvocationResponse marshals the pipeline's final response with
// the same binary encoding as the request, per the reply contract.
func EncodeInvocationResponse(resp *types.InvocationResponse) ([]byte, error) {
	body, err := msgpack.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize invocation response: %w", err)
	}
	return body, nil
}

// DecodeInvocationResponse unmarshals a wire-encoded response. Used by
// bus clients awaiting a reply and by tests asserting pipeline output.
func DecodeInvocationResponse(body []byte) (*types.InvocationResponse, error) {
	var resp types.InvocationResponse
	if err := msgpack.Unmarshal(body, &resp); err != nil {
		return nil, &DecodeError{
			Kind: DecodeErrorMalformed,
			Msg:  "failed to deserialize invocation response",
			Err:  err,
		}
	}
	return &resp, nil
}

// EncodeCloudEvent marshals a cloud-event envelope for publication on a
// lattice topic.
func EncodeCloudEvent(evt *types.CloudEvent) ([]byte, error) {
	body, err := msgpack.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize cloud event: %w", err)
	}
	return body, nil
}

// DecodeCloudEvent unmarshals a wire-encoded cloud-event envelope.
func DecodeCloudEvent(body []byte) (*types.CloudEvent, error) {
	var evt types.CloudEvent
	if err := msgpack.Unmarshal(body, &evt); err != nil {
		return nil, &DecodeError{
			Kind: DecodeErrorMalformed,
			Msg:  "failed to deserialize cloud event",
			Err:  err,
		}
	}
	return &evt, nil
}
