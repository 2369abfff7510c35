package units

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

// Exponent is a signed rational power applied to a unit. The zero value is 0.
type Exponent struct {
	num int64
	den int64
}

// Int returns the whole exponent n.
func Int(n int64) Exponent {
	return Exponent{num: n, den: 1}
}

// Frac returns the exponent n/d in lowest terms. It panics if d is zero.
func Frac(n, d int64) Exponent {
	if d == 0 {
		panic("units: zero denominator in exponent")
	}
	if d < 0 {
		n, d = -n, -d
	}
	g := gcd(abs(n), d)
	if g > 1 {
		n, d = n/g, d/g
	}
	return Exponent{num: n, den: d}
}

// ParseExponent reads an exponent written as an integer, a decimal or a fraction ("-1", "0.5", "1/2").
func ParseExponent(s string) (Exponent, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Exponent{}, errors.Errorf("invalid exponent %q", s)
	}
	return fromRat(r)
}

// maxDenominator bounds the fractions recovered from decimals. A decimal such as
// 0.3333333333333333 is read as 1/3 when that fraction lies within float precision of it.
const maxDenominator = 1000

func fromRat(r *big.Rat) (Exponent, error) {
	if r.Denom().Cmp(big.NewInt(maxDenominator)) > 0 {
		if e, ok := nearestFraction(r); ok {
			return e, nil
		}
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Exponent{}, errors.Errorf("exponent %s out of range", r.RatString())
	}
	return Frac(r.Num().Int64(), r.Denom().Int64()), nil
}

// nearestFraction finds the continued fraction convergent of r with denominator at most
// maxDenominator, accepting it only when it agrees with r to float64 precision.
func nearestFraction(r *big.Rat) (Exponent, bool) {
	x, _ := r.Float64()
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return Exponent{}, false
	}
	var (
		h0, h1 int64 = 0, 1
		k0, k1 int64 = 1, 0
		rest         = x
	)
	for i := 0; i < 64; i++ {
		a := math.Floor(rest)
		if math.Abs(a) > math.MaxInt32 {
			return Exponent{}, false
		}
		h := int64(a)*h1 + h0
		k := int64(a)*k1 + k0
		if k > maxDenominator {
			break
		}
		h0, h1, k0, k1 = h1, h, k1, k
		if closeToFloat(float64(h1)/float64(k1), x) {
			return Frac(h1, k1), true
		}
		frac := rest - a
		if frac == 0 {
			break
		}
		rest = 1 / frac
	}
	return Exponent{}, false
}

func closeToFloat(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12*math.Max(1, math.Abs(b))
}

func (e Exponent) Num() int64 {
	return e.num
}

func (e Exponent) Den() int64 {
	if e.den == 0 {
		return 1
	}
	return e.den
}

func (e Exponent) IsZero() bool {
	return e.num == 0
}

func (e Exponent) IsInt() bool {
	return e.Den() == 1
}

func (e Exponent) Float64() float64 {
	return float64(e.num) / float64(e.Den())
}

func (e Exponent) Add(o Exponent) Exponent {
	return Frac(e.num*o.Den()+o.num*e.Den(), e.Den()*o.Den())
}

func (e Exponent) Mul(o Exponent) Exponent {
	return Frac(e.num*o.num, e.Den()*o.Den())
}

func (e Exponent) Neg() Exponent {
	return Exponent{num: -e.num, den: e.Den()}
}

func (e Exponent) Equal(o Exponent) bool {
	return e.num == o.num && e.Den() == o.Den()
}

func (e Exponent) String() string {
	if e.IsInt() {
		return strconv.FormatInt(e.num, 10)
	}
	return fmt.Sprintf("%d/%d", e.num, e.Den())
}

// MarshalJSON writes whole exponents as integers and the rest as decimal numbers.
func (e Exponent) MarshalJSON() ([]byte, error) {
	if e.IsInt() {
		return []byte(strconv.FormatInt(e.num, 10)), nil
	}
	return []byte(strconv.FormatFloat(e.Float64(), 'g', -1, 64)), nil
}

func (e *Exponent) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		*e = Int(0)
		return nil
	}
	parsed, err := ParseExponent(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
