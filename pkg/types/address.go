package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is the delivery address snapshot stored on carts and orders as
// jsonb.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone,omitempty"`
}

// Validate checks the minimum fields a deliverable address needs.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address line1 is required")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address city is required")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("address postal code is required")
	}
	return nil
}

// Value implements driver.Valuer for jsonb storage.
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for jsonb storage.
func (a *Address) Scan(src any) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported address source %T", src)
	}
}
