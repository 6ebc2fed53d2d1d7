package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/models"
)

// Rubric criteria identifiers. The set and its weights are fixed; every
// evaluation carries exactly one score row per criterion.
const (
	CriterionHTMLStructure   = "HTML_STRUCTURE"
	CriterionCSSResponsive   = "CSS_RESPONSIVE"
	CriterionJSInteractivity = "JS_INTERACTIVITY"
	CriterionCodeQuality     = "CODE_QUALITY"
	CriterionCreativityBrief = "CREATIVITY_BRIEF"
)

// ErrUnknownCriterion indicates a score referenced a criterion outside the fixed set.
var ErrUnknownCriterion = errors.New("unknown rubric criterion")

// rubricCriterion pairs a criterion with its maximum weight.
type rubricCriterion struct {
	Name     string
	MaxScore int
}

// rubricCriteria is ordered; the order is preserved in stored rows and responses.
var rubricCriteria = []rubricCriterion{
	{Name: CriterionHTMLStructure, MaxScore: 25},
	{Name: CriterionCSSResponsive, MaxScore: 25},
	{Name: CriterionJSInteractivity, MaxScore: 25},
	{Name: CriterionCodeQuality, MaxScore: 15},
	{Name: CriterionCreativityBrief, MaxScore: 10},
}

// RubricMaxTotal is the sum of all criterion weights.
const RubricMaxTotal = 100

// clampScore normalises a raw score input to an integer in [0, max].
// Non-finite input collapses to 0.
func clampScore(raw float64, max int) int {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}

	rounded := int(math.Round(raw))
	if rounded < 0 {
		return 0
	}
	if rounded > max {
		return max
	}
	return rounded
}

// buildRubricScores expands reviewer input into the full fixed criterion set.
// Missing criteria default to 0; duplicates keep the last supplied value;
// unknown criteria are rejected. The returned overall score is the row sum.
func buildRubricScores(inputs []dto.RubricScoreInput) ([]models.PortfolioRubricScore, int, error) {
	known := make(map[string]rubricCriterion, len(rubricCriteria))
	for _, criterion := range rubricCriteria {
		known[criterion.Name] = criterion
	}

	supplied := make(map[string]dto.RubricScoreInput, len(inputs))
	for _, input := range inputs {
		criterion, ok := known[input.Criterion]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrUnknownCriterion, input.Criterion)
		}
		supplied[criterion.Name] = input
	}

	rows := make([]models.PortfolioRubricScore, 0, len(rubricCriteria))
	total := 0
	for _, criterion := range rubricCriteria {
		row := models.PortfolioRubricScore{
			Criterion: criterion.Name,
			MaxScore:  criterion.MaxScore,
		}
		if input, ok := supplied[criterion.Name]; ok {
			row.Score = clampScore(input.Score, criterion.MaxScore)
			row.Comment = input.Comment
		}
		total += row.Score
		rows = append(rows, row)
	}

	return rows, total, nil
}
