package address

import (
	"fmt"
	"strings"
	"unicode"

	"luckee-incentive/pkg/domain"

	"github.com/btcsuite/btcutil/bech32"
)

const maxAddressLength = 255

// Validator checks caller supplied addresses. With a prefix configured it requires a bech32
// address of that prefix carrying a 20 or 32 byte payload; otherwise it only rejects empty,
// over long, upper case or whitespace containing input.
type Validator struct {
	prefix string
}

func NewValidator(prefix string) *Validator {
	return &Validator{prefix: strings.ToLower(strings.TrimSpace(prefix))}
}

func (v *Validator) Prefix() string {
	return v.prefix
}

// Validate returns the normalized address or an error wrapping domain.ErrInvalidAddress.
func (v *Validator) Validate(addr string) (string, error) {
	if addr == "" {
		return "", fmt.Errorf("%w: empty address", domain.ErrInvalidAddress)
	}
	if len(addr) > maxAddressLength {
		return "", fmt.Errorf("%w: address longer than %d", domain.ErrInvalidAddress, maxAddressLength)
	}
	for _, r := range addr {
		if unicode.IsSpace(r) {
			return "", fmt.Errorf("%w: %q contains whitespace", domain.ErrInvalidAddress, addr)
		}
	}
	if strings.ToLower(addr) != addr {
		return "", fmt.Errorf("%w: %q is not normalized", domain.ErrInvalidAddress, addr)
	}

	if v == nil || v.prefix == "" {
		return addr, nil
	}

	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidAddress, err)
	}
	if hrp != v.prefix {
		return "", fmt.Errorf("%w: prefix %q, want %q", domain.ErrInvalidAddress, hrp, v.prefix)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidAddress, err)
	}
	if len(payload) != 20 && len(payload) != 32 {
		return "", fmt.Errorf("%w: payload length %d", domain.ErrInvalidAddress, len(payload))
	}
	return addr, nil
}

// Encode renders payload as a bech32 address under the validator prefix.
func (v *Validator) Encode(payload []byte) (string, error) {
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(v.prefix, conv)
}
