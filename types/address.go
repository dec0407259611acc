package types

import "strings"

// Address identifies an account, a contract or a token asset.
type Address string

// ZeroAccount is the all-zero Stellar account key. It can never sign and is
// treated the same as an empty address.
const ZeroAccount Address = "GAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAWHF"

// IsZero reports whether the address is empty or the zero account.
func (a Address) IsZero() bool {
	trimmed := Address(strings.TrimSpace(string(a)))
	return trimmed == "" || trimmed == ZeroAccount
}

// String returns the raw address.
func (a Address) String() string { return string(a) }

// Short abbreviates long keys for logs: "GABC…WXYZ".
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 12 {
		return s
	}
	return s[:4] + "…" + s[len(s)-4:]
}

// AddressPtr returns a pointer to a copy of a.
func AddressPtr(a Address) *Address { return &a }
