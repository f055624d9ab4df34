package models

import (
	"fmt"
	"strings"
)

// Address is a 20-byte account or contract identifier in the canonical
// lowercase 0x-prefixed hex form.
type Address string

// ZeroAddress is the null address. It is never a valid signer.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress validates and canonicalizes a hex address string.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("address %q missing 0x prefix", s)
	}
	hex := s[2:]
	if len(hex) != 40 {
		return "", fmt.Errorf("address %q has %d hex chars, want 40", s, len(hex))
	}
	for _, ch := range hex {
		if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')) {
			return "", fmt.Errorf("address %q contains non-hex character %q", s, ch)
		}
	}
	return Address("0x" + strings.ToLower(hex)), nil
}

// MustParseAddress is ParseAddress that panics on error. For tests and
// fixed configuration values only.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// IsZero reports whether the address is unset or the null address.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
