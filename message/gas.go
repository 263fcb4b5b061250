package message

import "math/big"

// Static gas-estimation constants. The estimator is an intentional
// over-approximation; it never simulates execution against node state.
const (
	BlockGasTarget  = 5_000_000_000
	MinGasPremium   = 100_000
	gasFeeCapScale  = 1 << 8 // 2^8 fixed-point precision for the base-fee extrapolation factor
	baseFeeExtrapExp = 20
)

// baseFeeScaleFactor is round((1 + 1/8)^20 * 2^8), computed exactly in the
// integer domain (as (9^20 * 256 + 8^20/2) / 8^20) rather than via floating
// point, per the fixed rounding the estimator must reproduce.
func baseFeeScaleFactor() *big.Int {
	num := new(big.Int).Exp(big.NewInt(9), big.NewInt(baseFeeExtrapExp), nil)
	num.Mul(num, big.NewInt(gasFeeCapScale))
	den := new(big.Int).Exp(big.NewInt(8), big.NewInt(baseFeeExtrapExp), nil)

	half := new(big.Int).Rsh(den, 1)
	num.Add(num, half)
	return num.Div(num, den)
}

// EstimateGasLimit returns the static default gasLimit.
func EstimateGasLimit() int64 {
	return BlockGasTarget / 10
}

// EstimateGasPremium returns the static default gasPremium: 1.5 * MinGasPremium.
func EstimateGasPremium() *big.Int {
	v := big.NewInt(MinGasPremium)
	v.Mul(v, big.NewInt(3))
	v.Div(v, big.NewInt(2))
	return v
}

// EstimateGasFeeCap extrapolates a fee cap from the current base fee:
// (baseFee * round((1+1/8)^20 * 2^8)) / 2^8 + gasPremium.
func EstimateGasFeeCap(baseFee *big.Int, gasPremium *big.Int) *big.Int {
	scale := baseFeeScaleFactor()
	v := new(big.Int).Mul(baseFee, scale)
	v.Div(v, big.NewInt(gasFeeCapScale))
	v.Add(v, gasPremium)
	return v
}

// FillGas fills any zero/empty gas fields of msg using the head's base fee,
// leaving fields the caller already set untouched.
func FillGas(msg Message, parentBaseFee []byte) (Message, error) {
	if msg.GasLimit == 0 {
		msg.GasLimit = EstimateGasLimit()
	}
	premiumZero := msg.GasPremium.Int == nil || msg.GasPremium.Sign() == 0
	if premiumZero {
		msg.GasPremium = asTokenAmount(EstimateGasPremium())
	}
	feeCapZero := msg.GasFeeCap.Int == nil || msg.GasFeeCap.Sign() == 0
	if feeCapZero {
		baseFee, err := decodeBigInt(parentBaseFee)
		if err != nil {
			return Message{}, err
		}
		msg.GasFeeCap = asTokenAmount(EstimateGasFeeCap(baseFee, bigIntOrZero(msg.GasPremium)))
	}
	return msg, nil
}
