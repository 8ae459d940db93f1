package request

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nspcc-dev/vdr-go/pkg/encoding/did"
)

// Validator tag names.
const (
	didTag = "did"
)

// validate is safe for concurrent use and caches struct metadata, so there is
// only one.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation(didTag, func(fl validator.FieldLevel) bool {
		return did.Validate(fl.Field().String()) == nil
	})
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks request structure. Builders call it for every request they
// produce, it's exported for hand-assembled ones. The signature and the
// request ID are not checked.
func (r *Request) Validate() error {
	if r.Operation == nil {
		return fmt.Errorf("%w: no operation", ErrInvalidStructure)
	}
	if len(r.Identifier) == 0 {
		return fmt.Errorf("%w: identifier is required for %s transaction", ErrInvalidStructure, r.Operation.Type())
	}
	if err := structError(validate.Struct(r)); err != nil {
		return err
	}
	return r.Operation.check()
}

func (o *AttribOperation) check() error {
	if err := structError(validate.Struct(o)); err != nil {
		return err
	}
	switch d := o.Data.(type) {
	case nil:
		return fmt.Errorf("%w: one of raw, hash or enc is required", ErrInvalidStructure)
	case Raw:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(d), &obj); err != nil {
			return fmt.Errorf("%w: raw attribute is not a JSON object: %v", ErrInvalidStructure, err)
		}
	case Hash:
		if b, err := hex.DecodeString(string(d)); err != nil || len(b) != sha256.Size {
			return fmt.Errorf("%w: hash must be hex-encoded sha256", ErrInvalidStructure)
		}
	case Enc:
		if len(d) == 0 {
			return fmt.Errorf("%w: empty enc attribute", ErrInvalidStructure)
		}
	}
	return nil
}

func (o *GetAttribOperation) check() error {
	if err := structError(validate.Struct(o)); err != nil {
		return err
	}
	if o.Selector != nil && len(o.Selector.Value()) == 0 {
		return fmt.Errorf("%w: empty %s selector", ErrInvalidStructure, o.Selector.Field())
	}
	return nil
}

func (o *NymOperation) check() error {
	if err := structError(validate.Struct(o)); err != nil {
		return err
	}
	if len(o.Verkey) != 0 {
		if _, err := did.DecodeVerkey(o.Dest, o.Verkey); err != nil {
			return err
		}
	}
	return nil
}

func (o *GetNymOperation) check() error {
	return structError(validate.Struct(o))
}

// structError converts validator errors into ErrInvalidStructure with a
// readable list of failed fields.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s: %q)", fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value())))
	}
	return fmt.Errorf("%w: bad %s", ErrInvalidStructure, strings.Join(fields, ", "))
}
