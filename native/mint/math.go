package mint

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// WeiDecimals is the number of fractional digits in one currency unit.
const WeiDecimals = 18

var weiPerUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(WeiDecimals), nil)

func newBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func fitsUint256(v *big.Int) bool {
	if v == nil {
		return true
	}
	if v.Sign() < 0 {
		return false
	}
	_, overflow := uint256.FromBig(v)
	return !overflow
}

// requiredPayment returns quantity × unitPrice, rejecting results that do
// not fit in 256 bits.
func requiredPayment(quantity uint64, unitPrice *big.Int) (*big.Int, error) {
	price, overflow := uint256.FromBig(newBigInt(unitPrice))
	if overflow {
		return nil, ErrOverflow
	}
	total, overflow := new(uint256.Int).MulOverflow(price, uint256.NewInt(quantity))
	if overflow {
		return nil, ErrOverflow
	}
	return total.ToBig(), nil
}

// addAmount returns a + b with 256-bit overflow detection.
func addAmount(a, b *big.Int) (*big.Int, error) {
	left, overflow := uint256.FromBig(newBigInt(a))
	if overflow {
		return nil, ErrOverflow
	}
	right, overflow := uint256.FromBig(newBigInt(b))
	if overflow {
		return nil, ErrOverflow
	}
	sum, overflow := new(uint256.Int).AddOverflow(left, right)
	if overflow {
		return nil, ErrOverflow
	}
	return sum.ToBig(), nil
}

// addCount returns a + b, failing instead of wrapping.
func addCount(a, b uint64) (uint64, error) {
	if a > ^uint64(0)-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// ParseAmount converts a decimal currency string such as "0.375" into wei.
// Plain integers are treated as whole currency units.
func ParseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	if strings.HasPrefix(trimmed, "-") {
		return nil, ErrInvalidAmount
	}
	whole, frac, _ := strings.Cut(trimmed, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > WeiDecimals {
		return nil, fmt.Errorf("amount %q has more than %d decimals", raw, WeiDecimals)
	}
	frac += strings.Repeat("0", WeiDecimals-len(frac))
	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if !fitsUint256(value) {
		return nil, ErrOverflow
	}
	return value, nil
}

// ParseWei parses a base-10 integer amount of wei.
func ParseWei(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer wei amount", ErrInvalidAmount, raw)
	}
	if value.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if !fitsUint256(value) {
		return nil, ErrOverflow
	}
	return value, nil
}

// FormatAmount renders wei as a decimal currency string without trailing zeros.
func FormatAmount(wei *big.Int) string {
	value := newBigInt(wei)
	sign := ""
	if value.Sign() < 0 {
		sign = "-"
		value.Neg(value)
	}
	whole, frac := new(big.Int).QuoRem(value, weiPerUnit, new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}
	digits := frac.String()
	digits = strings.Repeat("0", WeiDecimals-len(digits)) + digits
	return sign + whole.String() + "." + strings.TrimRight(digits, "0")
}
