package contract

import (
	"time"

	"luckee-incentive/pkg/domain"

	"gorm.io/datatypes"
)

// Registration is the record of one collaborating contract, keyed by the hex encoded
// contract type key.
type Registration struct {
	TypeKey      string                      `gorm:"column:type_key;primaryKey" json:"-"`
	ContractType domain.ContractType         `gorm:"column:contract_type;type:text" json:"contract_type"`
	ContractAddr string                      `gorm:"column:contract_addr" json:"contract_addr"`
	Status       domain.ContractStatus       `gorm:"column:status" json:"status"`
	Capabilities datatypes.JSONSlice[string] `gorm:"column:capabilities" json:"capabilities"`
	RegisteredAt time.Time                   `gorm:"column:registered_at" json:"registered_at"`
}

func (Registration) TableName() string { return "contracts" }
