package reports

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var feedbackCSVHeader = []string{
	"feedback_id", "review_cycle", "reviewer_name", "reviewer_email", "reviewee_name", "reviewee_email",
	"relation_type", "category", "question", "score", "comment", "submitted_at",
}

func WriteFeedbackCSV(w io.Writer, rows []FeedbackExportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(feedbackCSVHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			strconv.FormatInt(row.FeedbackID, 10),
			row.CycleName,
			row.ReviewerName,
			row.ReviewerEmail,
			row.RevieweeName,
			row.RevieweeEmail,
			row.RelationType,
			row.CategoryName,
			row.QuestionText,
			strconv.Itoa(row.Score),
			row.Comment,
			row.SubmittedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
