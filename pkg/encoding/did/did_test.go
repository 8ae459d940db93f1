package did

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stewardDID    = "Th7MpTaRZVRYnPiabds81Y"
	stewardVerkey = "FYmoFw55GeQH7SRFa37dkx1d2dZ3zUF8ckg7wmL7ofN4"
)

func TestValidate(t *testing.T) {
	t.Run("good", func(t *testing.T) {
		for _, id := range []string{
			stewardDID,
			stewardVerkey,
			"did:sov:" + stewardDID,
			"V4SGRU86Z58d6TV7PBUe6f",
		} {
			require.NoError(t, Validate(id), id)
		}
	})
	t.Run("bad", func(t *testing.T) {
		for name, id := range map[string]string{
			"empty":           "",
			"illegal chars":   "invalid_base58_identifier",
			"zero":            "Th7MpTaRZVRYnPiabds810",
			"short":           "Th7MpTaRZVRYnPiab",
			"long":            stewardVerkey + "FYmo",
			"empty qualified": "did:sov:",
		} {
			t.Run(name, func(t *testing.T) {
				err := Validate(id)
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrInvalidStructure))
			})
		}
	})
}

func TestNormalize(t *testing.T) {
	id, err := Normalize("did:sov:" + stewardDID)
	require.NoError(t, err)
	require.Equal(t, stewardDID, id)

	id, err = Normalize(stewardDID)
	require.NoError(t, err)
	require.Equal(t, stewardDID, id)

	_, err = Normalize("did:sov:O0Il")
	require.ErrorIs(t, err, ErrInvalidStructure)
}

func TestVerkeyDerivation(t *testing.T) {
	vk, err := DecodeVerkey("", stewardVerkey)
	require.NoError(t, err)
	require.Len(t, vk, FullLen)

	assert.Equal(t, stewardDID, FromVerkey(vk))
	assert.Equal(t, stewardVerkey, EncodeVerkey(vk))

	abbr := AbbreviateVerkey(vk)
	require.True(t, len(abbr) > 1 && abbr[0] == '~')

	full, err := DecodeVerkey(stewardDID, abbr)
	require.NoError(t, err)
	require.Equal(t, vk, full)
}

func TestDecodeVerkeyBad(t *testing.T) {
	_, err := DecodeVerkey("", "not_base58")
	require.ErrorIs(t, err, ErrInvalidStructure)

	_, err = DecodeVerkey("", stewardDID)
	require.ErrorIs(t, err, ErrInvalidStructure)

	_, err = DecodeVerkey(stewardVerkey, "~abc")
	require.ErrorIs(t, err, ErrInvalidStructure)

	_, err = DecodeVerkey(stewardDID, "~"+stewardVerkey)
	require.ErrorIs(t, err, ErrInvalidStructure)
}
