package focus

// EdgeDetector turns a level signal into transitions.
// The zero value starts inactive.
type EdgeDetector struct {
	active bool
}

// Update feeds the current condition and reports whether it just turned on
// (rising) or just turned off (falling).
func (e *EdgeDetector) Update(cond bool) (rising, falling bool) {
	rising = cond && !e.active
	falling = !cond && e.active
	e.active = cond
	return rising, falling
}

// Active returns the last observed condition.
func (e *EdgeDetector) Active() bool {
	return e.active
}
