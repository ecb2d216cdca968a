package domain

// DailyRecord is one archived day of water intake. The JSON shape matches the
// stored WATER_HISTORY elements, so existing data loads unchanged.
type DailyRecord struct {
	Date     DayKey `json:"date"`
	AmountMl int    `json:"amount"`
}

// NewDailyRecord creates a record for a completed day.
func NewDailyRecord(date DayKey, amountMl int) DailyRecord {
	return DailyRecord{Date: date, AmountMl: amountMl}
}

// LedgerSnapshot is the persisted state of the live water counter. Amount and
// LastRecorded are only meaningful together: the amount belongs to the day
// named by LastRecorded.
type LedgerSnapshot struct {
	CurrentAmountMl int
	LastRecorded    DayKey
	DailyGoalMl     int
}
