package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Money 以分为精度的金额，JSON 中输出为 "12.30" 形式的字符串
type Money struct {
	decimal.Decimal
}

// MoneyOf 四舍五入到分
func MoneyOf(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(moneyScale)}
}

// ParseMoney 解析十进制字符串
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return MoneyOf(d), nil
}

// MustMoney 仅用于常量与种子数据
func MustMoney(raw string) Money {
	m, err := ParseMoney(raw)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) MulInt(n int) Money {
	return MoneyOf(m.Decimal.Mul(decimal.NewFromInt(int64(n))))
}

func (m Money) Add(other Money) Money {
	return MoneyOf(m.Decimal.Add(other.Decimal))
}

// IsNegative 小于零
func (m Money) IsNegative() bool {
	return m.Decimal.Sign() < 0
}

func (m Money) String() string {
	return m.Decimal.StringFixed(moneyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 同时接受 "1.50" 与 1.5，null 保持零值
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	raw := b
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	parsed, err := ParseMoney(string(raw))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(moneyScale).Value()
}

func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(moneyScale)
	return nil
}
