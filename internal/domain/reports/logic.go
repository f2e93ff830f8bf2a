package reports

import "math"

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CompletionRate is the share of completed assignments as a percentage.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(completed) / float64(total) * 100)
}

// BuildCategoryDetails groups rows by category, then relation and question,
// keeping first-seen order. It also returns the overall average.
func BuildCategoryDetails(rows []ScoreRow) ([]CategoryDetail, float64) {
	type relationAcc struct {
		sum   int
		count int
	}
	type categoryAcc struct {
		detail        CategoryDetail
		sum           int
		relations     map[string]*relationAcc
		relationOrder []string
		questionIndex map[int64]int
	}

	var order []int64
	categories := map[int64]*categoryAcc{}
	total := 0
	for _, row := range rows {
		acc, ok := categories[row.CategoryID]
		if !ok {
			acc = &categoryAcc{
				detail:        CategoryDetail{CategoryID: row.CategoryID, CategoryName: row.CategoryName},
				relations:     map[string]*relationAcc{},
				questionIndex: map[int64]int{},
			}
			categories[row.CategoryID] = acc
			order = append(order, row.CategoryID)
		}
		acc.sum += row.Score
		acc.detail.TotalFeedbacks++
		total += row.Score

		rel, ok := acc.relations[row.RelationType]
		if !ok {
			rel = &relationAcc{}
			acc.relations[row.RelationType] = rel
			acc.relationOrder = append(acc.relationOrder, row.RelationType)
		}
		rel.sum += row.Score
		rel.count++

		qi, ok := acc.questionIndex[row.QuestionID]
		if !ok {
			qi = len(acc.detail.Questions)
			acc.questionIndex[row.QuestionID] = qi
			acc.detail.Questions = append(acc.detail.Questions, QuestionDetail{QuestionID: row.QuestionID, Text: row.QuestionText})
		}
		acc.detail.Questions[qi].Feedback = append(acc.detail.Questions[qi].Feedback, FeedbackEntry{
			Score:        row.Score,
			Comment:      row.Comment,
			RelationType: row.RelationType,
			Reviewer:     reviewerRef(row),
			CreatedAt:    row.CreatedAt,
		})
	}

	out := make([]CategoryDetail, 0, len(order))
	for _, id := range order {
		acc := categories[id]
		acc.detail.AverageScore = round2(float64(acc.sum) / float64(acc.detail.TotalFeedbacks))
		acc.detail.RelationTypes = make([]RelationScore, 0, len(acc.relationOrder))
		for _, relation := range acc.relationOrder {
			rel := acc.relations[relation]
			acc.detail.RelationTypes = append(acc.detail.RelationTypes, RelationScore{
				RelationType: relation,
				AverageScore: round2(float64(rel.sum) / float64(rel.count)),
				Count:        rel.count,
			})
		}
		out = append(out, acc.detail)
	}

	overall := 0.0
	if len(rows) > 0 {
		overall = round2(float64(total) / float64(len(rows)))
	}
	return out, overall
}
