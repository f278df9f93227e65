package reward

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"StakeLedger/internal/pool"
)

// SecondsPerYear is the accrual year used by the APY formula.
const SecondsPerYear = 365 * 86400

// Pending computes the yield accrued by a staked amount since its lock
// expired:
//
//	reward = amount * apy_bps * elapsed / (SecondsPerYear * 10000)
//
// where elapsed = now - lockUntil in whole seconds. Division truncates
// toward zero; no rounding compensation is applied. While the position
// is still locked (elapsed < 0) the pending reward is zero.
//
// The triple product can exceed int64 for large stakes, so the
// intermediate math runs on sdkmath.Int.
func Pending(amount, apyBps int64, lockUntil, now time.Time) sdkmath.Int {
	elapsed := now.Unix() - lockUntil.Unix()
	if elapsed < 0 || amount <= 0 || apyBps <= 0 {
		return sdkmath.ZeroInt()
	}

	return sdkmath.NewInt(amount).
		MulRaw(apyBps).
		MulRaw(elapsed).
		QuoRaw(int64(SecondsPerYear) * pool.BasisPointDenominator)
}
