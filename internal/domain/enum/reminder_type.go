package enum

// ReminderType is a tier of the overdue escalation ladder
type ReminderType string

const (
	ReminderTypeFirst  ReminderType = "first_reminder"
	ReminderTypeSecond ReminderType = "second_reminder"
	ReminderTypeFinal  ReminderType = "final_notice"
)

func (t ReminderType) String() string {
	return string(t)
}

// Severity orders tiers; unknown types rank below every real tier
func (t ReminderType) Severity() int {
	switch t {
	case ReminderTypeFirst:
		return 1
	case ReminderTypeSecond:
		return 2
	case ReminderTypeFinal:
		return 3
	}
	return 0
}

func (t ReminderType) IsValid() bool {
	return t.Severity() > 0
}
