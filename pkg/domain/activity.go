package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const PointsExchangeActivityID = "points_exchange"

type BlindBoxOpen struct {
	NftKind string `json:"nft_kind"`
	BoxID   string `json:"box_id"`
}

type NftExchange struct {
	NftID  string          `json:"nft_id"`
	Amount decimal.Decimal `json:"amount"`
}

type Referral struct {
	Referrer string `json:"referrer"`
}

type LevelUp struct {
	NewLevel UserLevel `json:"new_level"`
}

type CustomActivity struct {
	ActivityID string `json:"activity_id"`
}

// Activity is the activity that produced a reward. Exactly one variant is set and the JSON form is
// keyed by the variant name, e.g. {"referral":{"referrer":"u0"}}.
type Activity struct {
	BlindBoxOpen *BlindBoxOpen   `json:"blind_box_open,omitempty"`
	NftExchange  *NftExchange    `json:"nft_exchange,omitempty"`
	Referral     *Referral       `json:"referral,omitempty"`
	LevelUp      *LevelUp        `json:"level_up,omitempty"`
	Custom       *CustomActivity `json:"custom,omitempty"`
}

func NewCustomActivity(activityID string) Activity {
	return Activity{Custom: &CustomActivity{ActivityID: activityID}}
}

// Kind returns the variant name, or an empty string when no variant is set.
func (a Activity) Kind() string {
	switch {
	case a.BlindBoxOpen != nil:
		return "blind_box_open"
	case a.NftExchange != nil:
		return "nft_exchange"
	case a.Referral != nil:
		return "referral"
	case a.LevelUp != nil:
		return "level_up"
	case a.Custom != nil:
		return "custom"
	}
	return ""
}

func (a Activity) Validate() error {
	set := 0
	for _, ok := range []bool{
		a.BlindBoxOpen != nil,
		a.NftExchange != nil,
		a.Referral != nil,
		a.LevelUp != nil,
		a.Custom != nil,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: activity_type must set exactly one variant, got %d", ErrInvalidMessage, set)
	}
	if a.NftExchange != nil {
		if err := ValidateAmount(a.NftExchange.Amount); err != nil {
			return err
		}
	}
	if a.LevelUp != nil && !a.LevelUp.NewLevel.IsValid() {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidMessage, a.LevelUp.NewLevel)
	}
	return nil
}

func (a Activity) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Activity) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Activity{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("activity: unsupported scan type %T", src)
	}
}
