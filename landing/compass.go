package landing

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Compass is one of the eight principal compass points.
type Compass string

const (
	North     Compass = "N"
	NorthEast Compass = "NE"
	East      Compass = "E"
	SouthEast Compass = "SE"
	South     Compass = "S"
	SouthWest Compass = "SW"
	West      Compass = "W"
	NorthWest Compass = "NW"
)

var compassPoints = []Compass{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// AllCompassPoints returns the eight compass points clockwise from north.
func AllCompassPoints() []Compass {
	out := make([]Compass, len(compassPoints))
	copy(out, compassPoints)
	return out
}

// ParseCompass normalizes s and returns the matching compass point.
func ParseCompass(s string) (Compass, error) {
	// Casers carry state, so each call gets its own.
	c := Compass(cases.Upper(language.Und).String(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown compass direction %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the eight compass points.
func (c Compass) Valid() bool {
	for _, p := range compassPoints {
		if c == p {
			return true
		}
	}
	return false
}

// Opposite returns the diametrically opposite point, using the standard
// opposites table.
func (c Compass) Opposite() (Compass, bool) {
	o, ok := standardOpposites[c]
	return o, ok
}

func (c Compass) String() string {
	return string(c)
}

var standardOpposites = map[Compass]Compass{
	North:     South,
	NorthEast: SouthWest,
	East:      West,
	SouthEast: NorthWest,
	South:     North,
	SouthWest: NorthEast,
	West:      East,
	NorthWest: SouthEast,
}
