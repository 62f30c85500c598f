package dialog

import "github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"

// State is the position of a chat in the conversation.
type State int

const (
	Idle State = iota
	Collecting
	AwaitingFieldValue
	AwaitingLocation
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Collecting:
		return "collecting"
	case AwaitingFieldValue:
		return "awaiting_field_value"
	case AwaitingLocation:
		return "awaiting_location"
	case Done:
		return "done"
	}
	return "unknown"
}

// Field is the setting a pending text answer applies to.
type Field int

const (
	FieldNone Field = iota
	FieldCity
	FieldReportTime
	FieldAlertTime
)

func (f Field) String() string {
	switch f {
	case FieldCity:
		return "city"
	case FieldReportTime:
		return "report time"
	case FieldAlertTime:
		return "alert time"
	}
	return ""
}

func (f Field) value(cfg domain.UserConfig) string {
	switch f {
	case FieldCity:
		return cfg.City
	case FieldReportTime:
		return cfg.ReportTime.String()
	case FieldAlertTime:
		return cfg.AlertTime.String()
	}
	return ""
}

// fieldFor maps a menu label to its field.
func fieldFor(label string) (Field, bool) {
	switch label {
	case ButtonCity:
		return FieldCity, true
	case ButtonReportTime:
		return FieldReportTime, true
	case ButtonAlertTime:
		return FieldAlertTime, true
	}
	return FieldNone, false
}
