package courseware

import (
	"bytes"
	"regexp"
	"strings"

	"gradewatch/lib/htmlutil"
	"gradewatch/lib/snapshotstore"
	"gradewatch/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

// Criterion names used as snapshot field keys. They mirror the columns of
// the results table.
const (
	FieldTutor       = "tutor"
	FieldSpPoints    = "sp_points"
	FieldTotalPoints = "total_points"
	FieldResult      = "result"
)

// parseResults extracts per-student evaluation fields from the results
// table. Rows without a student id or with too few columns are skipped.
func parseResults(page []byte) (map[string]snapshotstore.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	now := timezone.Now()
	results := map[string]snapshotstore.Snapshot{}

	doc.Find("table.timetable-tab tr[id]").Each(func(_ int, row *goquery.Selection) {
		studentID := row.AttrOr("id", "")
		cols := row.Find("td")
		if studentID == "" || cols.Length() <= 10 {
			return
		}

		cell := func(i int, fallback string) string {
			text := htmlutil.CleanText(cols.Eq(i).Text())
			if text == "" {
				return fallback
			}
			return text
		}

		results[studentID] = snapshotstore.Snapshot{
			StudentID: studentID,
			Fields: map[string]string{
				FieldTutor:       cell(1, ""),
				FieldSpPoints:    cell(2, "0"),
				FieldTotalPoints: cell(9, "0"),
				FieldResult:      cell(10, "Nezadáno"),
			},
			CapturedAt: now,
		}
	})

	return results, nil
}

// AssessmentDetail is the free-form evaluation attached to a student's
// semester project.
type AssessmentDetail struct {
	Text        string
	SubmittedAt string
	PdfUrl      string
	DetailUrl   string
}

var pdfLinkPattern = regexp.MustCompile(`.*dokumentace.*\.pdf`)

func parseAssessmentDetail(page []byte, detailUrl string) (AssessmentDetail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return AssessmentDetail{}, err
	}

	detail := AssessmentDetail{
		Text:        "Žádný textový komentář.",
		SubmittedAt: "Neznámo",
		DetailUrl:   detailUrl,
	}

	textArea := doc.Find("textarea")
	if textArea.Length() > 0 {
		if text := htmlutil.CleanText(textArea.Text()); text != "" {
			detail.Text = text
		}
	}

	doc.Find("b").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if !containsSubmissionDateLabel(b.Text()) {
			return true
		}
		input := b.NextAllFiltered("input").First()
		if input.Length() == 0 {
			input = b.Parent().Find("input").First()
		}
		if value := input.AttrOr("value", ""); value != "" {
			detail.SubmittedAt = value
		}
		return false
	})

	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if pdfLinkPattern.MatchString(href) {
			detail.PdfUrl = href
			return false
		}
		return true
	})

	return detail, nil
}

func containsSubmissionDateLabel(text string) bool {
	return strings.Contains(text, "Datum odevzdání")
}
