// Package chipset is the registry of known clockless LED chipset timings.
package chipset

import (
	"errors"
	"sort"
	"strings"

	"ledrx/pkg/timing"
)

var ErrUnknown = errors.New("unknown chipset")

// timings holds the published 3 phase transmit timings, keyed by the
// canonical lower case chipset name.
var timings = map[string]timing.ChipsetTiming{
	"ws2812b":    {Name: "WS2812B", T1: 400, T2: 400, T3: 450, ResetUs: 50000},
	"ws2811":     {Name: "WS2811", T1: 320, T2: 320, T3: 640, ResetUs: 50000},
	"ws2811-400": {Name: "WS2811-400", T1: 800, T2: 800, T3: 900, ResetUs: 50000},
	"sk6812":     {Name: "SK6812", T1: 300, T2: 300, T3: 600, ResetUs: 80000},
	"tm1803":     {Name: "TM1803", T1: 700, T2: 1100, T3: 700, ResetUs: 50000},
	"ucs1903":    {Name: "UCS1903", T1: 500, T2: 1500, T3: 500, ResetUs: 50000},
}

// Lookup returns the nominal timing of a chipset by name.
// The name is matched case insensitive.
func Lookup(name string) (timing.ChipsetTiming, error) {
	t, ok := timings[strings.ToLower(name)]
	if !ok {
		return timing.ChipsetTiming{}, ErrUnknown
	}
	return t, nil
}

// Names lists all registered chipset names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(timings))
	for _, t := range timings {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
