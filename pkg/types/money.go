package types

import "github.com/shopspring/decimal"

// Money renders integer cents as a decimal string for API responses.
// All arithmetic stays in cents; decimal is display-only.
type Money int

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// MarshalJSON renders the amount as a quoted decimal string, e.g. "90.00".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Decimal().StringFixed(2) + `"`), nil
}

// UnmarshalJSON accepts a quoted or bare decimal string and stores cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	*m = Money(d.Shift(2).IntPart())
	return nil
}
