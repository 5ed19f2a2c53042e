package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Account holder of token balances.
type Account struct {
	Address common.Address
	// Label alias the account was resolved from, empty for literal addresses.
	Label string
}

// String returns the checksummed address.
func (a Account) String() string {
	return a.Address.Hex()
}

// AddressBook maps human aliases to account addresses.
type AddressBook map[string]string

// Resolve turns a literal address or a known alias into an Account.
func (b AddressBook) Resolve(identifier string) (Account, error) {
	identifier = strings.TrimSpace(identifier)
	if common.IsHexAddress(identifier) {
		return Account{Address: common.HexToAddress(identifier)}, nil
	}

	raw, ok := b[identifier]
	if !ok {
		return Account{}, &ResolutionError{Identifier: identifier, Err: ErrUnknownAlias}
	}

	addr, err := ParseAddress(raw)
	if err != nil {
		return Account{}, &ResolutionError{Identifier: identifier, Err: err}
	}

	return Account{Address: addr, Label: identifier}, nil
}
