package notify

import (
	"fmt"

	"gradewatch/lib/timezone"
	"gradewatch/services/watchdog"

	"github.com/mazen160/go-random"
)

// BuildTestEvent fabricates a change event for verifying the delivery
// pipeline end to end. The random token makes the resulting message easy
// to match against the log line announcing it.
func BuildTestEvent(studentID string) (watchdog.ChangeEvent, error) {
	token, err := random.String(8)
	if err != nil {
		return watchdog.ChangeEvent{}, err
	}
	return watchdog.ChangeEvent{
		StudentID:   studentID,
		Field:       "result",
		Previous:    "TEST_START",
		HasPrevious: true,
		New:         fmt.Sprintf("TEST-%s", token),
		DetectedAt:  timezone.Now(),
	}, nil
}
