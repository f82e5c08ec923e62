package courseware

import (
	"context"
	"net/url"

	"go.opentelemetry.io/otel/codes"
)

// FetchAssessmentDetail downloads the per-student assessment page, which
// carries the tutor's free-form evaluation text, the submission date and
// a link to the reviewed documentation.
func (c *Client) FetchAssessmentDetail(ctx context.Context, studentID string) (AssessmentDetail, error) {
	ctx, span := tracer.Start(ctx, "FetchAssessmentDetail")
	defer span.End()

	detailUrl := c.assessmentUrl(studentID)

	res, err := c.http.R().
		SetContext(ctx).
		Get(detailUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch assessment detail")
		return AssessmentDetail{
			Text:        "Nepodařilo se načíst detail.",
			SubmittedAt: "Neznámo",
			DetailUrl:   detailUrl,
		}, err
	}

	return parseAssessmentDetail(res.Body(), detailUrl)
}

// assessmentUrl resolves the assess.php endpoint next to the results page.
func (c *Client) assessmentUrl(studentID string) string {
	ref := &url.URL{
		Path:     "assess.php",
		RawQuery: url.Values{"SID": {studentID}}.Encode(),
	}
	return c.resultsUrl.ResolveReference(ref).String()
}
