package gamma

import (
	"sync/atomic"

	"github.com/annamatynian/smartmoney-data/internal/model"
)

// Tracker holds the current gamma profile. Swap replaces it wholesale, so a
// reader never observes a half-updated profile with inconsistent walls.
type Tracker struct {
	profile atomic.Pointer[model.GammaProfile]
}

// NewTracker creates a tracker with no profile loaded.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Swap installs a new profile atomically.
func (t *Tracker) Swap(p *model.GammaProfile) {
	t.profile.Store(p)
}

// Profile returns the current profile, or nil if none has been supplied yet.
func (t *Tracker) Profile() *model.GammaProfile {
	return t.profile.Load()
}
