package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seka-portal-api/internal/dto"
)

func TestClampScore(t *testing.T) {
	require.Equal(t, 0, clampScore(-3, 25))
	require.Equal(t, 0, clampScore(math.NaN(), 25))
	require.Equal(t, 0, clampScore(math.Inf(1), 25))
	require.Equal(t, 0, clampScore(math.Inf(-1), 25))
	require.Equal(t, 25, clampScore(30, 25))
	require.Equal(t, 25, clampScore(25, 25))
	require.Equal(t, 13, clampScore(12.6, 15))
	require.Equal(t, 12, clampScore(12.4, 15))
	require.Equal(t, 10, clampScore(10.0, 10))
}

func TestBuildRubricScores_FullSet(t *testing.T) {
	rows, total, err := buildRubricScores([]dto.RubricScoreInput{
		{Criterion: CriterionHTMLStructure, Score: 20},
		{Criterion: CriterionCSSResponsive, Score: 18},
		{Criterion: CriterionJSInteractivity, Score: 15},
		{Criterion: CriterionCodeQuality, Score: 12},
		{Criterion: CriterionCreativityBrief, Score: 8},
	})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.Equal(t, 73, total)

	seen := map[string]int{}
	for _, row := range rows {
		seen[row.Criterion] = row.Score
	}
	require.Equal(t, 20, seen[CriterionHTMLStructure])
	require.Equal(t, 8, seen[CriterionCreativityBrief])
}

func TestBuildRubricScores_MissingCriteriaDefaultZero(t *testing.T) {
	rows, total, err := buildRubricScores([]dto.RubricScoreInput{
		{Criterion: CriterionHTMLStructure, Score: 25},
	})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.Equal(t, 25, total)

	for _, row := range rows {
		if row.Criterion != CriterionHTMLStructure {
			require.Zero(t, row.Score)
		}
	}
}

func TestBuildRubricScores_ClampsOverweight(t *testing.T) {
	// A raw 30 on a 25-point criterion clamps to 25.
	rows, total, err := buildRubricScores([]dto.RubricScoreInput{
		{Criterion: CriterionHTMLStructure, Score: 30},
	})
	require.NoError(t, err)
	require.Equal(t, 25, total)

	for _, row := range rows {
		require.LessOrEqual(t, row.Score, row.MaxScore)
		require.GreaterOrEqual(t, row.Score, 0)
	}
}

func TestBuildRubricScores_DuplicateLastWins(t *testing.T) {
	_, total, err := buildRubricScores([]dto.RubricScoreInput{
		{Criterion: CriterionCodeQuality, Score: 5},
		{Criterion: CriterionCodeQuality, Score: 11},
	})
	require.NoError(t, err)
	require.Equal(t, 11, total)
}

func TestBuildRubricScores_UnknownCriterionRejected(t *testing.T) {
	_, _, err := buildRubricScores([]dto.RubricScoreInput{
		{Criterion: "VIBES", Score: 10},
	})
	require.ErrorIs(t, err, ErrUnknownCriterion)
}

func TestBuildRubricScores_TotalNeverExceedsMax(t *testing.T) {
	_, total, err := buildRubricScores([]dto.RubricScoreInput{
		{Criterion: CriterionHTMLStructure, Score: 999},
		{Criterion: CriterionCSSResponsive, Score: 999},
		{Criterion: CriterionJSInteractivity, Score: 999},
		{Criterion: CriterionCodeQuality, Score: 999},
		{Criterion: CriterionCreativityBrief, Score: 999},
	})
	require.NoError(t, err)
	require.Equal(t, RubricMaxTotal, total)
}
