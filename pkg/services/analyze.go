package services

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
	"github.com/ekaya-inc/ekaya-sheets/pkg/profiling"
	"github.com/ekaya-inc/ekaya-sheets/pkg/sheets"
)

// AnalyzeRequest is one uploaded file to profile.
type AnalyzeRequest struct {
	File     io.Reader
	FileName string
	// SheetName selects a worksheet; empty means the first one.
	SheetName string
}

// AnalyzeService profiles uploaded spreadsheets. It never writes state.
type AnalyzeService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*models.TableProfile, error)
}

type analyzeService struct {
	analyzer *profiling.Analyzer
	logger   *zap.Logger
}

// NewAnalyzeService creates an AnalyzeService.
func NewAnalyzeService(analyzer *profiling.Analyzer, logger *zap.Logger) AnalyzeService {
	return &analyzeService{
		analyzer: analyzer,
		logger:   logger.Named("analyze"),
	}
}

var _ AnalyzeService = (*analyzeService)(nil)

func (s *analyzeService) Analyze(ctx context.Context, req AnalyzeRequest) (*models.TableProfile, error) {
	if req.File == nil {
		return nil, apperrors.NewValidationError("file", "file is required")
	}

	sheet, err := sheets.ReadSheet(req.File, req.FileName, req.SheetName)
	if err != nil {
		return nil, err
	}
	table, err := sheets.DetectHeader(sheet)
	if err != nil {
		return nil, err
	}

	profile, err := s.analyzer.AnalyzeTable(ctx, table.SheetName, table.Headers, table.Rows)
	if err != nil {
		return nil, err
	}
	profile.HeaderRow = table.HeaderRow

	s.logger.Info("Analyzed spreadsheet",
		zap.String("file_name", req.FileName),
		zap.String("sheet", table.SheetName),
		zap.Int("header_row", table.HeaderRow),
		zap.Int("rows", profile.TotalRows),
		zap.Int("columns", profile.TotalColumns),
		zap.Int("templates", len(profile.Templates)))
	return profile, nil
}
