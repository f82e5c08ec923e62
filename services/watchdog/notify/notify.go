// Package notify delivers change events to people: a Discord webhook
// embed by default, plain email as an alternative channel.
package notify

import (
	"context"

	"gradewatch/lib/scrapers/courseware"
)

// OrionResolver looks up the university account name shown alongside a
// student number in notifications. Lookups are best effort.
type OrionResolver interface {
	GetOrionLogin(ctx context.Context, studentNumber string) (string, error)
}

// DetailFetcher loads the free-form assessment of a student so the
// notification can quote it. May be nil, the notification then carries
// only the changed field.
type DetailFetcher interface {
	FetchAssessmentDetail(ctx context.Context, studentID string) (courseware.AssessmentDetail, error)
}
