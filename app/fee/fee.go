// Package fee computes provider fees and the platform/provider revenue
// split. All functions are pure and operate on whole currency units.
package fee

import (
	"math"
	"strings"
)

const (
	qrisTierThreshold = 110000
	qrisLowRate       = 0.02
	qrisLowFlat       = 500
	qrisHighRate      = 0.025
	virtualAccountFee = 4500
	paypalRate        = 0.03
)

// Compute returns the provider fee for a payment method and gross amount.
// Unrecognized methods cost nothing.
func Compute(method string, amount int64) int64 {
	normalized := strings.ToLower(strings.TrimSpace(method))
	if amount < 0 {
		amount = 0
	}

	switch {
	case normalized == "qris":
		if amount >= qrisTierThreshold {
			return round(float64(amount) * qrisHighRate)
		}
		return round(float64(amount)*qrisLowRate) + qrisLowFlat
	case strings.HasSuffix(normalized, "_va"):
		return virtualAccountFee
	case normalized == "paypal":
		return round(float64(amount) * paypalRate)
	default:
		return 0
	}
}

// Split divides a total fee between the platform and the provider. The
// platform takes at most its configured cut; both shares are non-negative
// and always sum to the fee.
func Split(totalFee, platformCut int64) (platformShare, providerShare int64) {
	if totalFee < 0 {
		totalFee = 0
	}
	if platformCut < 0 {
		platformCut = 0
	}

	platformShare = platformCut
	if platformShare > totalFee {
		platformShare = totalFee
	}
	providerShare = totalFee - platformShare
	return platformShare, providerShare
}

// ReceivedAmount is the net credited to the merchant for a gross amount.
func ReceivedAmount(amount, totalFee int64) int64 {
	if amount < 0 {
		amount = 0
	}
	if totalFee < 0 {
		totalFee = 0
	}
	net := amount - totalFee
	if net < 0 {
		return 0
	}
	return net
}

func round(v float64) int64 {
	return int64(math.Round(v))
}
