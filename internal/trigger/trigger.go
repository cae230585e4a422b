// Package trigger decides when the user has scrolled close enough to the end
// of the feed to ask for more cards.
package trigger

// NearEndHandler is invoked when the end of the feed comes into view
type NearEndHandler interface {
	OnNearEnd()
}

// FetchState reports whether a fetch is already running
type FetchState interface {
	InFlight() bool
}

// Observer watches the reading position against the end of the feed. It is
// level-triggered: every observation with the end in view fires again, so the
// handler must tolerate repeated calls.
type Observer struct {
	lookahead int
	handler   NearEndHandler
	state     FetchState
}

// NewObserver creates an observer. lookahead is how many cards before the end
// the sentinel counts as visible; negative values are treated as zero.
func NewObserver(lookahead int, handler NearEndHandler, state FetchState) *Observer {
	if lookahead < 0 {
		lookahead = 0
	}
	return &Observer{lookahead: lookahead, handler: handler, state: state}
}

// SentinelVisible reports whether the end-of-feed marker is within reach of
// position, the index of the card on screen. An empty feed always shows it.
func (o *Observer) SentinelVisible(position, total int) bool {
	if total == 0 || position >= total {
		return true
	}
	return total-1-position <= o.lookahead
}

// Observe records the current position and fires the handler when the
// sentinel is visible and no fetch is in flight. It reports whether it fired.
func (o *Observer) Observe(position, total int) bool {
	if !o.SentinelVisible(position, total) {
		return false
	}
	if o.state != nil && o.state.InFlight() {
		return false
	}
	o.handler.OnNearEnd()
	return true
}
