package geo

// Locator resolves the caller's position from a client-supplied "lat,lng"
// string, falling back to a configured default. One attempt, no retries.
type Locator struct {
	Default Coordinate
}

// NewLocator builds a Locator whose fallback is parsed from raw. An empty or
// malformed raw value leaves the fallback at (0,0).
func NewLocator(raw string) *Locator {
	def, err := ParseCoordinate(raw)
	if err != nil {
		def = Coordinate{}
	}
	return &Locator{Default: def}
}

// Resolve returns the parsed position and true, or the fallback and false
func (l *Locator) Resolve(raw string) (Coordinate, bool) {
	if raw != "" {
		if c, err := ParseCoordinate(raw); err == nil {
			return c, true
		}
	}
	return l.Default, false
}
