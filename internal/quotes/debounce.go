package quotes

import (
	"time"

	"openalgo-scalper/pkg/utils"
)

// Debounce delays per refresh bucket. Rapid-fire UI events within a bucket's
// settle period collapse into one network call; buckets are independent and
// give no ordering guarantee relative to each other.
const (
	MarginDelay       = 200 * time.Millisecond
	UnderlyingDelay   = 300 * time.Millisecond
	FundsDelay        = 300 * time.Millisecond
	OpenPositionDelay = 200 * time.Millisecond
	StrikeLTPsDelay   = 200 * time.Millisecond
)

// BucketActions are the callbacks behind each debounce bucket. Each runs
// with whatever state is current at fire time; superseded triggers carry no
// arguments of their own.
type BucketActions struct {
	Margin       func()
	Underlying   func()
	Funds        func()
	OpenPosition func()
	StrikeLTPs   func()
}

// RefreshBuckets exposes every public refresh entry point through a named
// debounce bucket with a fixed delay.
type RefreshBuckets struct {
	Margin       *utils.Debouncer
	Underlying   *utils.Debouncer
	Funds        *utils.Debouncer
	OpenPosition *utils.Debouncer
	StrikeLTPs   *utils.Debouncer
}

// NewRefreshBuckets wires the named buckets to their actions.
func NewRefreshBuckets(actions BucketActions) *RefreshBuckets {
	return &RefreshBuckets{
		Margin:       utils.NewDebouncer(MarginDelay, actions.Margin),
		Underlying:   utils.NewDebouncer(UnderlyingDelay, actions.Underlying),
		Funds:        utils.NewDebouncer(FundsDelay, actions.Funds),
		OpenPosition: utils.NewDebouncer(OpenPositionDelay, actions.OpenPosition),
		StrikeLTPs:   utils.NewDebouncer(StrikeLTPsDelay, actions.StrikeLTPs),
	}
}

// CancelAll stops every pending bucket timer, used on teardown.
func (b *RefreshBuckets) CancelAll() {
	b.Margin.Cancel()
	b.Underlying.Cancel()
	b.Funds.Cancel()
	b.OpenPosition.Cancel()
	b.StrikeLTPs.Cancel()
}
