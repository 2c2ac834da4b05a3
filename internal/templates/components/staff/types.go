package staff

const ListID = "staffBookingList"

type Filter struct {
	Status string
	Date   string
	Query  string
}

// Period is one link of the date drill-down.
type Period struct {
	Label string
	Href  string
}

type BookingRow struct {
	OrderNumber    string
	DetailHref     string
	StatusPath     string
	Name           string
	Email          string
	Date           string
	Time           string
	NumberOfPeople int64
	Status         string
	CreatedAt      string
}

type ListData struct {
	ListPath string
	Filter   Filter
	Statuses []string
	Rows     []BookingRow
	// Periods drill one level below Filter.Date.
	Periods []Period
	// Breadcrumbs lead back up from Filter.Date.
	Breadcrumbs []Period
	Truncated   bool
	Error       string
}

type PageData struct {
	List ListData
}
