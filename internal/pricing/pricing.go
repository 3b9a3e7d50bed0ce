package pricing

import (
	"fmt"
	"math"
	"time"

	"autobid/internal/biddingerrors"
	"autobid/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// BidStep is the fixed price increment/decrement applied by a suggested bid
	BidStep int64 = 10000
	// BidCost is charged to the bidder's wallet for every accepted bid
	BidCost int64 = 50
	// InitialGrant is credited to every new user
	InitialGrant int64 = 5000

	TopUpMin int64 = 100
	TopUpMax int64 = 100000

	// MaxAmount bounds every base price and bid amount
	MaxAmount int64 = 1_000_000_000_000

	MinBiddingDays = 1
	MaxBiddingDays = 30
)

// StartingBidRatio is the share of the base price used as the opening price
var StartingBidRatio = decimal.NewFromFloat(0.85)

// Rule identifies which amount rule a bid violated
type Rule string

const (
	RuleNonPositive             Rule = "non_positive"
	RuleAboveMaximum            Rule = "above_maximum"
	RuleNotAboveCurrent         Rule = "not_above_current"
	RuleBelowMinimumIncrement   Rule = "below_minimum_increment"
	RuleNotBelowCurrent         Rule = "not_below_current"
	RuleBelowStartingBid        Rule = "below_starting_bid"
	RuleExceedsMaximumDecrement Rule = "exceeds_maximum_decrement"
	RuleUnknownDirection        Rule = "unknown_direction"
)

// AmountError reports a rejected bid amount together with a reason for the bidder
type AmountError struct {
	Rule   Rule
	Reason string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("%s: %s", biddingerrors.ErrInvalidBidAmount, e.Reason)
}

func (e *AmountError) Unwrap() error {
	return biddingerrors.ErrInvalidBidAmount
}

// UserReason returns the message shown to the bidder
func (e *AmountError) UserReason() string {
	return e.Reason
}

// NextSuggestedAmount returns the price one step away from current in the given direction.
// Downward suggestions never go below zero; upward ones saturate at math.MaxInt64.
func NextSuggestedAmount(current int64, direction models.BiddingType) int64 {
	if direction == models.BiddingDownward {
		return max(0, current-BidStep)
	}
	if current > math.MaxInt64-BidStep {
		return math.MaxInt64
	}
	return current + BidStep
}

// ResolveAmount returns custom when it is set and positive, otherwise the next suggestion
func ResolveAmount(custom *int64, current int64, direction models.BiddingType) int64 {
	if custom != nil && *custom > 0 {
		return *custom
	}
	return NextSuggestedAmount(current, direction)
}

// Validate checks amount against the current price and direction. It returns nil or an *AmountError.
func Validate(amount, current int64, direction models.BiddingType, startingBid int64) error {
	if amount <= 0 {
		return &AmountError{Rule: RuleNonPositive, Reason: "bid amount must be greater than zero"}
	}
	if amount > MaxAmount {
		return &AmountError{
			Rule:   RuleAboveMaximum,
			Reason: fmt.Sprintf("bid amount cannot exceed %s", FormatAmount(MaxAmount)),
		}
	}

	switch direction {
	case models.BiddingUpward:
		if amount <= current {
			return &AmountError{
				Rule:   RuleNotAboveCurrent,
				Reason: fmt.Sprintf("upward bid must be higher than the current price of %s", FormatAmount(current)),
			}
		}
		// amount > current here, so the difference cannot overflow
		if amount-current < BidStep {
			return &AmountError{
				Rule:   RuleBelowMinimumIncrement,
				Reason: fmt.Sprintf("upward bid must be at least %s", FormatAmount(current+BidStep)),
			}
		}
	case models.BiddingDownward:
		if amount >= current {
			return &AmountError{
				Rule:   RuleNotBelowCurrent,
				Reason: fmt.Sprintf("downward bid must be lower than the current price of %s", FormatAmount(current)),
			}
		}
		if amount < startingBid {
			return &AmountError{
				Rule:   RuleBelowStartingBid,
				Reason: fmt.Sprintf("downward bid cannot go below the starting bid of %s", FormatAmount(startingBid)),
			}
		}
		if current-amount > BidStep {
			return &AmountError{
				Rule:   RuleExceedsMaximumDecrement,
				Reason: fmt.Sprintf("downward bid cannot be lower than %s", FormatAmount(current-BidStep)),
			}
		}
	default:
		return &AmountError{
			Rule:   RuleUnknownDirection,
			Reason: fmt.Sprintf("unknown bidding direction %q", direction),
		}
	}

	return nil
}

// SuggestedStartingBid returns floor(basePrice * 0.85)
func SuggestedStartingBid(basePrice int64) int64 {
	return decimal.NewFromInt(basePrice).Mul(StartingBidRatio).Floor().IntPart()
}

// BiddingEndTime returns the close of a bidding window that opens at from
func BiddingEndTime(from time.Time, days int) time.Time {
	return from.Add(time.Duration(days) * 24 * time.Hour)
}

// IsBiddingActive reports whether now is strictly before end
func IsBiddingActive(end, now time.Time) bool {
	return now.Before(end)
}

// TimeRemaining renders the time left until end in a compact form
func TimeRemaining(end, now time.Time) string {
	d := end.Sub(now)
	if d <= 0 {
		return "Ended"
	}

	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount in rupees with grouped thousands, e.g. "Rs. 95,000"
func FormatAmount(amount int64) string {
	return printer.Sprintf("Rs. %d", amount)
}

// ValidBiddingDuration reports whether days is an allowed bidding window length
func ValidBiddingDuration(days int) bool {
	return days >= MinBiddingDays && days <= MaxBiddingDays
}
