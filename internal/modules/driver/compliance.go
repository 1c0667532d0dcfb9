// README: Rest compliance derivation from accumulated work logs.
package driver

import "time"

// A driver who has accumulated at least restThresholdHours of work owes
// restHours of rest before the next assignment.
const (
	restThresholdHours = 8.0
	restHours          = 8.0
)

// Compliance is the derived rest state of a driver at a point in time.
type Compliance struct {
	HoursWorked       float64
	RestRequiredHours float64
	NextAvailableTime *time.Time
}

// ComplianceFromLogs derives rest compliance from a driver's work logs.
// HoursWorked sums every log; NextAvailableTime is the latest value among
// the logs, nil when no log carries one. Pure, no side effects.
func ComplianceFromLogs(logs []WorkLog) Compliance {
	var c Compliance
	for _, l := range logs {
		c.HoursWorked += l.HoursWorked
		if l.NextAvailableTime == nil {
			continue
		}
		if c.NextAvailableTime == nil || l.NextAvailableTime.After(*c.NextAvailableTime) {
			t := *l.NextAvailableTime
			c.NextAvailableTime = &t
		}
	}
	if c.HoursWorked >= restThresholdHours {
		c.RestRequiredHours = restHours
	}
	return c
}

// CompliantAt reports whether the driver may take an assignment at the given
// instant. A nil NextAvailableTime never blocks.
func (c Compliance) CompliantAt(at time.Time) bool {
	return c.NextAvailableTime == nil || !at.Before(*c.NextAvailableTime)
}
