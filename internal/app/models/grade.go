package models

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Grade is a fixed-point mark with two decimals, stored as hundredths.
// It maps onto a NUMERIC(5,2) column.
type Grade int64

// MaxGrade is the largest value NUMERIC(5,2) holds.
const MaxGrade Grade = 99999

var ErrInvalidGrade = errors.New("grade must be a number between 0 and 999.99 with at most two decimals")

// ParseGrade parses values such as "85", "85.5" and "85.50".
func ParseGrade(s string) (Grade, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasDot := strings.Cut(s, ".")
	if !isDigits(whole) || (hasDot && (!isDigits(frac) || len(frac) > 2)) {
		return 0, ErrInvalidGrade
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidGrade
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidGrade
	}

	g := Grade(w*100 + f)
	if w > int64(MaxGrade/100) || g > MaxGrade {
		return 0, ErrInvalidGrade
	}
	return g, nil
}

// isDigits reports whether s is non-empty and only ASCII digits.
func isDigits(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

// String renders the grade with exactly two decimals.
func (g Grade) String() string {
	return fmt.Sprintf("%d.%02d", int64(g)/100, int64(g)%100)
}

// Numeric converts the grade for a NUMERIC parameter.
func (g Grade) Numeric() pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(int64(g)), Exp: -2, Valid: true}
}

// GradeFromNumeric converts a scanned NUMERIC column; NULL yields nil.
func GradeFromNumeric(n pgtype.Numeric) (*Grade, error) {
	if !n.Valid {
		return nil, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return nil, ErrInvalidGrade
	}

	v := new(big.Int).Set(n.Int)
	shift := int64(n.Exp) + 2
	switch {
	case shift > 0:
		v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil))
	case shift < 0:
		div := new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil)
		var rem big.Int
		v.QuoRem(v, div, &rem)
		if rem.Sign() != 0 {
			return nil, ErrInvalidGrade
		}
	}

	if !v.IsInt64() || v.Int64() < 0 || Grade(v.Int64()) > MaxGrade {
		return nil, ErrInvalidGrade
	}
	g := Grade(v.Int64())
	return &g, nil
}
