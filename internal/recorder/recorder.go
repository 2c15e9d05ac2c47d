package recorder

// RunEvent holds the outcome of one accounting run.
type RunEvent struct {
	Subscriber           string
	Regime               string // "first_run", "cross_month", "same_day", "cross_day"
	AllCommonUsed        float64
	AllCommonIncremental float64
	AllCommonToday       float64
	AllTrafficUsed       float64
	Fired                bool
	Reason               string
}

// NotifyEvent records a dispatch attempt.
type NotifyEvent struct {
	Subscriber string
	Channel    string
	Title      string
	Delivered  bool
	Detail     string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecordNotify(evt *NotifyEvent) error
	Close() error
}
