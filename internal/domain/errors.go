package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrInsufficientHistory is returned when a diff is requested before two snapshots exist.
	ErrInsufficientHistory = errors.New("insufficient snapshots have been taken to compare last two")
	// ErrUnknownAlias is returned when an account identifier is neither an address nor a known alias.
	ErrUnknownAlias = errors.New("unknown account alias")
	// ErrNoContract is returned when a token address has no deployed code.
	ErrNoContract = errors.New("no contract code at address")
)

// ResolutionError reports a failed token, metadata or account resolution.
type ResolutionError struct {
	Identifier string
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Identifier, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// LookupError reports a read of a (token, account) pair that was never set.
type LookupError struct {
	Token   common.Address
	Account common.Address
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no balance recorded for token %s account %s", e.Token.Hex(), e.Account.Hex())
}

// PairFailure a single failed balance query.
type PairFailure struct {
	Token   Token
	Account Account
	Err     error
}

// AcquisitionError reports the failed queries of a discarded snapshot batch.
type AcquisitionError struct {
	Failures []PairFailure
	// Total number of queries in the batch.
	Total int
}

func (e *AcquisitionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "snapshot acquisition failed for %d of %d pairs", len(e.Failures), e.Total)
	for i, f := range e.Failures {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Failures)-i)
			break
		}
		fmt.Fprintf(&b, "; token=%s account=%s: %v", f.Token, f.Account, f.Err)
	}
	return b.String()
}

// Unwrap exposes every pair failure to errors.Is and errors.As.
func (e *AcquisitionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Failed reports whether the given pair is among the failures.
func (e *AcquisitionError) Failed(token Token, account Account) bool {
	for _, f := range e.Failures {
		if f.Token.Address == token.Address && f.Account.Address == account.Address {
			return true
		}
	}
	return false
}
