package pagescmd

// FeatureGates exposes runtime feature toggles required by page command
// handlers. Callers inject closures wired to the module config to avoid tight
// coupling.
type FeatureGates struct {
	// SchedulingEnabled should return true when deferred publishing is on.
	SchedulingEnabled func() bool
	// RedirectsEnabled should return true when path changes feed the
	// redirect registry.
	RedirectsEnabled func() bool
}

func (g FeatureGates) schedulingEnabled() bool {
	if g.SchedulingEnabled == nil {
		return true
	}
	return g.SchedulingEnabled()
}

func (g FeatureGates) redirectsEnabled() bool {
	if g.RedirectsEnabled == nil {
		return true
	}
	return g.RedirectsEnabled()
}
