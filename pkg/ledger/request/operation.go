package request

import (
	"encoding/json"
	"fmt"
)

type (
	// AttribData is the attribute payload of ATTRIB and the attribute selector
	// of GET_ATTRIB. It's one of Raw, Hash or Enc, so a value always carries
	// exactly one payload variant.
	AttribData interface {
		// Field is the name of the JSON field used for this variant.
		Field() string
		// Value is the string carried by the variant.
		Value() string

		isAttribData()
	}

	// Raw is a plain JSON attribute for ATTRIB, like `{"endpoint":{"ha":"127.0.0.1:5555"}}`.
	// In GET_ATTRIB it's the attribute name, like "endpoint".
	Raw string
	// Hash is a hex-encoded sha256 of the attribute kept off-ledger.
	Hash string
	// Enc is an encrypted attribute value.
	Enc string
)

// Field implements the AttribData interface.
func (Raw) Field() string { return "raw" }

// Value implements the AttribData interface.
func (r Raw) Value() string { return string(r) }

func (Raw) isAttribData() {}

// Field implements the AttribData interface.
func (Hash) Field() string { return "hash" }

// Value implements the AttribData interface.
func (h Hash) Value() string { return string(h) }

func (Hash) isAttribData() {}

// Field implements the AttribData interface.
func (Enc) Field() string { return "enc" }

// Value implements the AttribData interface.
func (e Enc) Value() string { return string(e) }

func (Enc) isAttribData() {}

// NewAttribData picks the only non-empty variant. It returns nil if all of
// them are empty and an error if more than one is set.
func NewAttribData(hash, raw, enc string) (AttribData, error) {
	var (
		data AttribData
		set  int
	)
	if len(raw) != 0 {
		data = Raw(raw)
		set++
	}
	if len(hash) != 0 {
		data = Hash(hash)
		set++
	}
	if len(enc) != 0 {
		data = Enc(enc)
		set++
	}
	if set > 1 {
		return nil, fmt.Errorf("%w: only one of raw, hash or enc can be specified", ErrInvalidStructure)
	}
	return data, nil
}

type (
	// AttribOperation sets an attribute of Dest.
	AttribOperation struct {
		Dest string     `validate:"required,did"`
		Data AttribData `validate:"-"`
	}

	// GetAttribOperation reads an attribute of Dest. Selector names the
	// attribute, nil selector is legal, the ledger decides what to do with it.
	GetAttribOperation struct {
		Dest     string     `validate:"required,did"`
		Selector AttribData `validate:"-"`
	}

	// NymOperation creates or updates the Dest identity record.
	NymOperation struct {
		Dest   string `validate:"required,did"`
		Verkey string
		Alias  string
		// Role is a role code, nil leaves it as is.
		Role *string `validate:"omitempty,oneof=0 2 101 201"`
	}

	// GetNymOperation reads the Dest identity record.
	GetNymOperation struct {
		Dest string `validate:"required,did"`
	}

	attribAux struct {
		Type string `json:"type"`
		Dest string `json:"dest"`
		Raw  string `json:"raw,omitempty"`
		Hash string `json:"hash,omitempty"`
		Enc  string `json:"enc,omitempty"`
	}

	nymAux struct {
		Type   string  `json:"type"`
		Dest   string  `json:"dest"`
		Verkey string  `json:"verkey,omitempty"`
		Alias  string  `json:"alias,omitempty"`
		Role   *string `json:"role,omitempty"`
	}
)

// Type implements the Operation interface.
func (*AttribOperation) Type() string { return TypeAttrib }

// IsWrite implements the Operation interface.
func (*AttribOperation) IsWrite() bool { return true }

// MarshalJSON implements the json.Marshaler interface.
func (o *AttribOperation) MarshalJSON() ([]byte, error) {
	return marshal(newAttribAux(TypeAttrib, o.Dest, o.Data))
}

// Type implements the Operation interface.
func (*GetAttribOperation) Type() string { return TypeGetAttrib }

// IsWrite implements the Operation interface.
func (*GetAttribOperation) IsWrite() bool { return false }

// MarshalJSON implements the json.Marshaler interface.
func (o *GetAttribOperation) MarshalJSON() ([]byte, error) {
	return marshal(newAttribAux(TypeGetAttrib, o.Dest, o.Selector))
}

// Type implements the Operation interface.
func (*NymOperation) Type() string { return TypeNym }

// IsWrite implements the Operation interface.
func (*NymOperation) IsWrite() bool { return true }

// MarshalJSON implements the json.Marshaler interface.
func (o *NymOperation) MarshalJSON() ([]byte, error) {
	return marshal(nymAux{
		Type:   TypeNym,
		Dest:   o.Dest,
		Verkey: o.Verkey,
		Alias:  o.Alias,
		Role:   o.Role,
	})
}

// Type implements the Operation interface.
func (*GetNymOperation) Type() string { return TypeGetNym }

// IsWrite implements the Operation interface.
func (*GetNymOperation) IsWrite() bool { return false }

// MarshalJSON implements the json.Marshaler interface.
func (o *GetNymOperation) MarshalJSON() ([]byte, error) {
	return marshal(nymAux{Type: TypeGetNym, Dest: o.Dest})
}

func newAttribAux(typ string, dest string, data AttribData) attribAux {
	aux := attribAux{Type: typ, Dest: dest}
	switch d := data.(type) {
	case Raw:
		aux.Raw = string(d)
	case Hash:
		aux.Hash = string(d)
	case Enc:
		aux.Enc = string(d)
	}
	return aux
}

// DecodeOperation unmarshals an operation choosing its type by the "type" field.
func DecodeOperation(data []byte) (Operation, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: bad operation: %v", ErrInvalidStructure, err)
	}
	switch header.Type {
	case TypeAttrib, TypeGetAttrib:
		aux := new(attribAux)
		if err := json.Unmarshal(data, aux); err != nil {
			return nil, fmt.Errorf("%w: bad operation: %v", ErrInvalidStructure, err)
		}
		d, err := NewAttribData(aux.Hash, aux.Raw, aux.Enc)
		if err != nil {
			return nil, err
		}
		if header.Type == TypeAttrib {
			return &AttribOperation{Dest: aux.Dest, Data: d}, nil
		}
		return &GetAttribOperation{Dest: aux.Dest, Selector: d}, nil
	case TypeNym, TypeGetNym:
		aux := new(nymAux)
		if err := json.Unmarshal(data, aux); err != nil {
			return nil, fmt.Errorf("%w: bad operation: %v", ErrInvalidStructure, err)
		}
		if header.Type == TypeGetNym {
			return &GetNymOperation{Dest: aux.Dest}, nil
		}
		return &NymOperation{Dest: aux.Dest, Verkey: aux.Verkey, Alias: aux.Alias, Role: aux.Role}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported operation type %q", ErrInvalidStructure, header.Type)
	}
}
