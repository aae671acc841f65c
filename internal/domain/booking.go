package domain

import "time"

type CabinClass string

const (
	CabinEconomy        CabinClass = "Economy"
	CabinPremiumEconomy CabinClass = "Premium Economy"
	CabinBusiness       CabinClass = "Business"
	CabinFirstClass     CabinClass = "First Class"
)

// CabinClasses lists the valid classes in manifest order (highest first).
var CabinClasses = []CabinClass{CabinFirstClass, CabinBusiness, CabinPremiumEconomy, CabinEconomy}

func (c CabinClass) Valid() bool {
	for _, known := range CabinClasses {
		if c == known {
			return true
		}
	}
	return false
}

// Booking is one ledger entry. Entries are stored as an ordered list under
// their flight code and are never updated or deleted.
type Booking struct {
	BookingCode    string     `json:"booking_code"`
	RobloxUsername string     `json:"roblox_username"`
	DiscordID      int64      `json:"discord_id"`
	CabinClass     CabinClass `json:"cabin_class"`
	BookedAt       time.Time  `json:"booked_at"`
}
