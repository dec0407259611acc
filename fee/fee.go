// Package fee splits withdrawal payouts into the protocol fee cut and the
// net amount delivered to the recipient.
package fee

import (
	"errors"
	"fmt"

	"github.com/xraph/paystream/types"
)

// MaxRateBps is the highest accepted fee rate (100%).
const MaxRateBps = uint32(types.BasisPointsDenominator)

// ErrInvalidRate is returned for rates above MaxRateBps.
var ErrInvalidRate = errors.New("fee: rate exceeds 10000 bps")

// ErrNegativeAmount is returned when asked to split a negative amount.
var ErrNegativeAmount = errors.New("fee: negative amount")

// Split returns the net payout and the fee cut for amount at rateBps.
// fee = floor(amount * rateBps / 10000) and net = amount - fee, so the two
// parts always add back up to amount.
func Split(amount int64, rateBps uint32) (net, cut int64, err error) {
	if err := ValidateRate(rateBps); err != nil {
		return 0, 0, err
	}
	if amount < 0 {
		return 0, 0, ErrNegativeAmount
	}
	if rateBps == 0 || amount == 0 {
		return amount, 0, nil
	}

	cut, err = types.MulDivFloor(amount, int64(rateBps), types.BasisPointsDenominator)
	if err != nil {
		return 0, 0, fmt.Errorf("fee: split %d at %d bps: %w", amount, rateBps, err)
	}
	return amount - cut, cut, nil
}

// ValidateRate checks that rateBps is within [0, MaxRateBps].
func ValidateRate(rateBps uint32) error {
	if rateBps > MaxRateBps {
		return ErrInvalidRate
	}
	return nil
}
