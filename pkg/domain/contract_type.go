package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

type ContractKind string

const (
	ContractKindFt       ContractKind = "ft"
	ContractKindBlindBox ContractKind = "blind_box"
	ContractKindNft      ContractKind = "nft"
	ContractKindCustom   ContractKind = "custom"
)

var contractKindTags = map[ContractKind]byte{
	ContractKindFt:       0x01,
	ContractKindBlindBox: 0x02,
	ContractKindNft:      0x03,
	ContractKindCustom:   0x04,
}

// ContractType identifies a collaborating contract. Built-in kinds encode as a bare string,
// custom kinds as {"custom":"<name>"}.
type ContractType struct {
	Kind ContractKind
	Name string
}

var (
	ContractTypeFt       = ContractType{Kind: ContractKindFt}
	ContractTypeBlindBox = ContractType{Kind: ContractKindBlindBox}
	ContractTypeNft      = ContractType{Kind: ContractKindNft}
)

func CustomContractType(name string) ContractType {
	return ContractType{Kind: ContractKindCustom, Name: name}
}

func (c ContractType) Validate() error {
	if _, ok := contractKindTags[c.Kind]; !ok {
		return fmt.Errorf("%w: unknown contract type %q", ErrInvalidMessage, c.Kind)
	}
	if c.Kind == ContractKindCustom && c.Name == "" {
		return fmt.Errorf("%w: custom contract type requires a name", ErrInvalidMessage)
	}
	if c.Kind != ContractKindCustom && c.Name != "" {
		return fmt.Errorf("%w: contract type %q takes no name", ErrInvalidMessage, c.Kind)
	}
	return nil
}

// Key is the store key: one tag byte, followed by the name bytes for custom kinds.
// Byte order of keys is the iteration order of registrations.
func (c ContractType) Key() []byte {
	tag, ok := contractKindTags[c.Kind]
	if !ok {
		return nil
	}
	if c.Kind != ContractKindCustom {
		return []byte{tag}
	}
	return append([]byte{tag}, c.Name...)
}

func (c ContractType) KeyHex() string {
	return hex.EncodeToString(c.Key())
}

func (c ContractType) String() string {
	if c.Kind == ContractKindCustom {
		return string(c.Kind) + ":" + c.Name
	}
	return string(c.Kind)
}

func (c ContractType) MarshalJSON() ([]byte, error) {
	if c.Kind == ContractKindCustom {
		return json.Marshal(map[string]string{string(ContractKindCustom): c.Name})
	}
	return json.Marshal(string(c.Kind))
}

func (c *ContractType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var kind string
		if err := json.Unmarshal(data, &kind); err != nil {
			return err
		}
		ct := ContractType{Kind: ContractKind(kind)}
		if ct.Kind == ContractKindCustom {
			return fmt.Errorf("%w: custom contract type requires a name", ErrInvalidMessage)
		}
		*c = ct
		return nil
	}

	var custom map[string]string
	if err := json.Unmarshal(data, &custom); err != nil {
		return fmt.Errorf("%w: contract type: %v", ErrInvalidMessage, err)
	}
	name, ok := custom[string(ContractKindCustom)]
	if !ok || len(custom) != 1 {
		return fmt.Errorf("%w: contract type object must be {\"custom\": name}", ErrInvalidMessage)
	}
	*c = CustomContractType(name)
	return nil
}

func (c ContractType) Value() (driver.Value, error) {
	b, err := c.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *ContractType) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return c.UnmarshalJSON(v)
	case string:
		return c.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("contract type: unsupported scan type %T", src)
	}
}
