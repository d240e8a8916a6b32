package conversation

import "time"

// Config holds the conversation machine's tunable constants. Zero-value
// fields are used as they are, not replaced by defaults; construct via
// DefaultConfig and override only what's needed. The Max*Length fields
// are carried here but nothing reads them: the conversation machine does
// not truncate, and the tool adapters that cap their output (VisitUrl,
// WebSearch) use their own fixed constants.
type Config struct {
	IdleTimeout     time.Duration
	WatchdogTimeout time.Duration

	MaxToolActualLength      int
	MaxHistoryTextLength     int
	MaxSearchDescriptionLength int
	MaxWebPageActualLength   int
	MaxSimplifiedLength      int

	// PreserveRecentOnTimeout surfaces the Open Question in spec.md §9:
	// whether the SendingMessage -> Idle transition on a MessageUser
	// outcome should keep `recent` when the round trip was timeout-driven.
	// When false (the original behavior and this default), the goodbye is
	// followed by CommittingToMemory and then Idle with no recent
	// conversation; when true, the entity goes straight to Idle keeping
	// the conversation as recent, and nothing is committed.
	PreserveRecentOnTimeout bool

	TimeoutGoodbyeMessage string
}

// DefaultConfig returns spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:     300 * time.Second,
		WatchdogTimeout: 600 * time.Second,

		MaxToolActualLength:        4 * 1024,
		MaxHistoryTextLength:       1024,
		MaxSearchDescriptionLength: 20,
		MaxWebPageActualLength:     10 * 1024,
		MaxSimplifiedLength:        300,

		PreserveRecentOnTimeout: false,

		TimeoutGoodbyeMessage: "User said goodbye, RESPOND WITH GOODBYE BUT MENTION RELEVANT THINGS ABOUT THE CONVERSATION",
	}
}
