package timezone

import "time"

// Location is the county's local time, the dashboards report dates in it.
var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
}

// Now is the current time in the county, scrapers run on machines in
// other timezones and a run near midnight would otherwise stamp the
// wrong day.
func Now() time.Time {
	return time.Now().In(Location)
}

// Date is midnight of the given day in the county.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location)
}
