package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportTestResults builds an xlsx workbook with one row per attempt plus a
// per-subject analytics sheet.
func (s *exportService) ExportTestResults(ctx context.Context, testID uint, actorID string) ([]byte, error) {
	actor, err := s.repo.User().GetByID(ctx, actorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if actor.Role != models.RoleTutor && actor.Role != models.RoleAdmin {
		return nil, NewPermissionError(actorID, testID, "test", "export_results", "requires tutor or admin role")
	}

	test, err := s.repo.Test().GetByID(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	attempts, _, err := s.repo.Attempt().GetByTest(ctx, testID, repositories.AttemptFilters{
		SortBy:    "attempted_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get test attempts: %w", err)
	}

	f := excelize.NewFile()
	resultsSheet := "Results"

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Student ID", "Attempt", "Score", "Score %", "Correct", "Incorrect", "Skipped",
		"Percentile", "Badge", "Coins", "Answers Changed", "Correct After Change",
		"Time Taken (minutes)", "Attempted At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(resultsSheet, cell, header)
	}

	for rowIndex, attempt := range attempts {
		row := []interface{}{
			attempt.UserID,
			attempt.AttemptNumber,
			attempt.Score,
			attempt.ScorePercent,
			attempt.CorrectCount,
			attempt.IncorrectCount,
			attempt.SkippedCount,
			attempt.Percentile,
			attempt.Badge,
			attempt.CoinsEarned,
			attempt.ChangedAnswers.TotalChanged,
			attempt.ChangedAnswers.CorrectAfterChange,
			attempt.TotalTimeTaken / 60,
			attempt.AttemptedAt.Format("2006-01-02 15:04:05"),
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(resultsSheet, cell, value)
		}
	}

	if err := s.writeSubjectSheet(f, attempts); err != nil {
		return nil, err
	}

	s.logger.Info("Exported test results",
		"test_id", testID, "test_title", test.Title, "attempts", len(attempts))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *exportService) writeSubjectSheet(f *excelize.File, attempts []*models.TestAttempt) error {
	sheetName := "Subject Analytics"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{"Student ID", "Attempt", "Subject", "Correct", "Total", "Accuracy %"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	rowIndex := 2
	for _, attempt := range attempts {
		for _, sa := range attempt.SubjectAnalytics {
			row := []interface{}{
				attempt.UserID,
				attempt.AttemptNumber,
				string(sa.Subject),
				sa.Correct,
				sa.Total,
				sa.Accuracy,
			}
			for colIndex, value := range row {
				cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex)
				f.SetCellValue(sheetName, cell, value)
			}
			rowIndex++
		}
	}
	return nil
}
