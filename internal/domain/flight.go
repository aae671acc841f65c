package domain

// Flight is a catalog entry keyed by its externally assigned flight code.
// Field order matches the on-disk document layout.
type Flight struct {
	Route     string `json:"route"`
	Aircraft  string `json:"aircraft"`
	SpotsLeft int    `json:"spots_left"`
	Departure string `json:"departure"`
	Timezone  string `json:"timezone"`
}

// DepartureLayout is the fixed UTC format flight departures are stored in.
const DepartureLayout = "2006-01-02 15:04"

// DefaultTimezone is used when an admin adds a flight without one.
const DefaultTimezone = "Europe/London"
