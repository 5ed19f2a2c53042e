package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressBook_Resolve(t *testing.T) {
	book := AddressBook{
		"treasury": "0x0000000000000000000000000000000000000c01",
		"broken":   "not-an-address",
	}

	t.Run("literal address", func(t *testing.T) {
		acc, err := book.Resolve(acc2)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(acc2), acc.Address)
		assert.Empty(t, acc.Label)
	})

	t.Run("alias", func(t *testing.T) {
		acc, err := book.Resolve("treasury")
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(acc1), acc.Address)
		assert.Equal(t, "treasury", acc.Label)
	})

	t.Run("unknown alias", func(t *testing.T) {
		_, err := book.Resolve("nobody")
		var resErr *ResolutionError
		require.True(t, errors.As(err, &resErr))
		assert.Equal(t, "nobody", resErr.Identifier)
		assert.ErrorIs(t, err, ErrUnknownAlias)
	})

	t.Run("alias to invalid address", func(t *testing.T) {
		_, err := book.Resolve("broken")
		var resErr *ResolutionError
		require.True(t, errors.As(err, &resErr))
	})
}

func TestNewToken_Invalid(t *testing.T) {
	_, err := NewToken("0x1234")
	require.Error(t, err)
}

func TestAcquisitionError(t *testing.T) {
	ta, err := NewToken(tokenA)
	require.NoError(t, err)
	a1 := Account{Address: common.HexToAddress(acc1)}
	a2 := Account{Address: common.HexToAddress(acc2)}
	cause := errors.New("rpc down")

	acqErr := &AcquisitionError{
		Total:    2,
		Failures: []PairFailure{{Token: ta, Account: a1, Err: cause}},
	}

	assert.True(t, acqErr.Failed(ta, a1))
	assert.False(t, acqErr.Failed(ta, a2))
	assert.ErrorIs(t, acqErr, cause)
	assert.Contains(t, acqErr.Error(), "1 of 2 pairs")
}
