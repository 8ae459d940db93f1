package response

import (
	"encoding/json"
	"fmt"
)

type (
	// ReadResult is the common part of GET_* results. Data is nil when the
	// ledger has nothing for the request.
	ReadResult struct {
		Type       string  `json:"type"`
		Identifier string  `json:"identifier,omitempty"`
		ReqID      uint64  `json:"reqId"`
		Dest       string  `json:"dest"`
		SeqNo      uint64  `json:"seqNo,omitempty"`
		TxnTime    uint64  `json:"txnTime,omitempty"`
		Data       *string `json:"data"`
	}

	// AttribResult is a GET_ATTRIB result, Data is the attribute value.
	AttribResult struct {
		ReadResult
		Raw  string `json:"raw,omitempty"`
		Hash string `json:"hash,omitempty"`
		Enc  string `json:"enc,omitempty"`
	}

	// NymResult is a GET_NYM result, Data is a JSON-encoded NymData.
	NymResult struct {
		ReadResult
	}

	// NymData is an identity record.
	NymData struct {
		Dest       string  `json:"dest"`
		Identifier string  `json:"identifier,omitempty"`
		Role       *string `json:"role"`
		Verkey     string  `json:"verkey,omitempty"`
		SeqNo      uint64  `json:"seqNo,omitempty"`
		TxnTime    uint64  `json:"txnTime,omitempty"`
	}

	// WriteResult is a result of write transactions.
	WriteResult struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
		ReqID      uint64 `json:"reqId"`
		SeqNo      uint64 `json:"seqNo"`
		TxnTime    uint64 `json:"txnTime"`
	}
)

// Found tells whether the ledger returned any data.
func (r *ReadResult) Found() bool {
	return r.Data != nil
}

// Nym decodes identity record, it's nil if there is no such identity.
func (r *NymResult) Nym() (*NymData, error) {
	if !r.Found() {
		return nil, nil
	}
	nd := new(NymData)
	if err := json.Unmarshal([]byte(*r.Data), nd); err != nil {
		return nil, fmt.Errorf("%w: bad NYM data: %v", ErrMalformedReply, err)
	}
	return nd, nil
}
