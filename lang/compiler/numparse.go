package compiler

import (
	"math/big"
	"strconv"
)

// parseInt parses a signed decimal integer literal as produced by the
// scanner's classifyNumber. When the value overflows int64, big is the
// literal's own decimal text and overflow is true, so the caller pools it as
// a ConstBigInt instead (spec.md §3 "Int promotes to BigInt on overflow").
func parseInt(lit string) (n int64, bigLit string, overflow bool) {
	v, err := strconv.ParseInt(lit, 10, 64)
	if err == nil {
		return v, "", false
	}
	if _, ok := new(big.Int).SetString(lit, 10); ok {
		return 0, lit, true
	}
	return 0, "", false
}

func parseFloat(lit string) (float64, error) {
	return strconv.ParseFloat(lit, 64)
}
