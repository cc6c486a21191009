package constants

const (
	// DateFormat is the canonical day key layout (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is used for "saved at" style clock displays (HH:MM)
	TimeFormat = "15:04"

	// DisplayDateFormat is the human-readable day header
	DisplayDateFormat = "Mon, Jan 2"

	// MonthFormat is used to select a month on the command line (YYYY-MM)
	MonthFormat = "2006-01"

	// TimestampFormat stores instants as fixed-width UTC text so that
	// lexical order matches chronological order.
	TimestampFormat = "2006-01-02T15:04:05.000000000Z"
)

// DueFormat is accepted and printed for todo due dates
const DueFormat = "2006-01-02 15:04"
