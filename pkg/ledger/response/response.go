/*
Package response interprets validator pool replies.

Every reply is an Envelope with "op" set to REPLY, REQNACK or REJECT. REPLY
carries the ledger result, the other two carry a reason string, its
"Name(...)" token identifies the failure class (like
"client request invalid: MissingSignature()").
*/
package response

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Op discriminates pool replies.
type Op string

// Reply kinds.
const (
	// OpReply is a successful reply with the result.
	OpReply Op = "REPLY"
	// OpReqNack means the request was refused before ordering, the client can
	// usually fix it.
	OpReqNack Op = "REQNACK"
	// OpReject means the request was considered and refused by ledger rules.
	OpReject Op = "REJECT"
)

var (
	// ErrRequestNacked is matched by every REQNACK error.
	ErrRequestNacked = errors.New("request nacked")
	// ErrRequestRejected is matched by every REJECT error.
	ErrRequestRejected = errors.New("request rejected")
	// ErrMalformedReply is returned for replies that can't be interpreted.
	ErrMalformedReply = errors.New("malformed reply")
)

// Envelope is a raw pool reply. It's immutable after receipt.
type Envelope struct {
	Op         Op              `json:"op"`
	Identifier string          `json:"identifier,omitempty"`
	ReqID      uint64          `json:"reqId,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// Parse decodes and checks reply data.
func Parse(data []byte) (*Envelope, error) {
	e := new(Envelope)
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if err := e.check(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Envelope) check() error {
	switch e.Op {
	case OpReply:
		if len(e.Result) == 0 {
			return fmt.Errorf("%w: REPLY without result", ErrMalformedReply)
		}
	case OpReqNack, OpReject:
	default:
		return fmt.Errorf("%w: unknown op %q", ErrMalformedReply, e.Op)
	}
	return nil
}

// Interpret returns the result of a successful reply or an error describing
// the failure: *NackError for REQNACK and *RejectError for REJECT.
func (e *Envelope) Interpret() (json.RawMessage, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	switch e.Op {
	case OpReqNack:
		return nil, &NackError{Reason: e.Reason, Category: Classify(e.Reason), ReqID: e.ReqID}
	case OpReject:
		return nil, &RejectError{Reason: e.Reason, Category: Classify(e.Reason), ReqID: e.ReqID}
	}
	return e.Result, nil
}

// Decode interprets the reply and unmarshals its result into v.
func (e *Envelope) Decode(v any) error {
	res, err := e.Interpret()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res, v); err != nil {
		return fmt.Errorf("%w: bad result: %v", ErrMalformedReply, err)
	}
	return nil
}

type (
	// NackError is a REQNACK reply.
	NackError struct {
		Reason   string
		Category Category
		ReqID    uint64
	}

	// RejectError is a REJECT reply.
	RejectError struct {
		Reason   string
		Category Category
		ReqID    uint64
	}
)

// Error implements the error interface.
func (e *NackError) Error() string {
	return fmt.Sprintf("request %d nacked: %s", e.ReqID, e.Reason)
}

// Is makes errors.Is(err, ErrRequestNacked) work.
func (e *NackError) Is(target error) bool {
	return target == ErrRequestNacked
}

// Retryable tells whether a corrected request (with a new ID) can succeed.
func (e *NackError) Retryable() bool {
	return e.Category.fixable()
}

// Error implements the error interface.
func (e *RejectError) Error() string {
	return fmt.Sprintf("request %d rejected: %s", e.ReqID, e.Reason)
}

// Is makes errors.Is(err, ErrRequestRejected) work.
func (e *RejectError) Is(target error) bool {
	return target == ErrRequestRejected
}

// Retryable is always false, ledger policy doesn't change on retry.
func (e *RejectError) Retryable() bool {
	return false
}

// CategoryOf returns reason category of REQNACK and REJECT errors and
// CategoryUnknown for anything else.
func CategoryOf(err error) Category {
	var (
		nack *NackError
		rej  *RejectError
	)
	switch {
	case errors.As(err, &nack):
		return nack.Category
	case errors.As(err, &rej):
		return rej.Category
	}
	return CategoryUnknown
}
