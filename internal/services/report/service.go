package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
	"gopkg.in/yaml.v3"
)

// Service writes the result file and the optional report formats for a finished run
type Service struct {
	config *common.Config
	pdf    interfaces.PDFRenderer
	logger arbor.ILogger
}

var _ interfaces.ReportWriter = (*Service)(nil)

func NewService(config *common.Config, pdf interfaces.PDFRenderer, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		pdf:    pdf,
		logger: logger,
	}
}

// Write persists the run. The JSON result file is always written; YAML, markdown
// and PDF follow output.formats. The first failure stops further writes.
func (s *Service) Write(ctx context.Context, report *models.RunReport) ([]string, error) {
	if err := os.MkdirAll(s.config.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	resultsPath := s.config.OutputPath(s.config.Output.ResultsFile)
	data, err := ResultsJSON(report.Records)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(resultsPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write results file: %w", err)
	}
	paths := []string{resultsPath}

	base := strings.TrimSuffix(resultsPath, filepath.Ext(resultsPath))

	if s.config.HasFormat("yaml") {
		data, err := yaml.Marshal(report)
		if err != nil {
			return paths, fmt.Errorf("failed to encode YAML report: %w", err)
		}
		path := base + ".yaml"
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write YAML report: %w", err)
		}
		paths = append(paths, path)
	}

	var markdown string
	if s.config.HasFormat("markdown") || s.config.HasFormat("pdf") {
		markdown = RenderMarkdown(report)
	}

	if s.config.HasFormat("markdown") {
		path := base + ".md"
		if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
			return paths, fmt.Errorf("failed to write markdown report: %w", err)
		}
		paths = append(paths, path)
	}

	if s.config.HasFormat("pdf") {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		data, err := s.pdf.RenderMarkdown(markdown, reportTitle+" "+report.ID)
		if err != nil {
			return paths, err
		}
		path := base + ".pdf"
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write PDF report: %w", err)
		}
		paths = append(paths, path)
	}

	s.logger.Info().Strs("files", paths).Msg("Reports written")
	return paths, nil
}

// ResultsJSON encodes the ordered records as an indented JSON array
func ResultsJSON(records []models.OutcomeRecord) ([]byte, error) {
	if records == nil {
		records = []models.OutcomeRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}
	return append(data, '\n'), nil
}

// PrintSummary logs the run totals and every non-passing check
func PrintSummary(logger arbor.ILogger, report *models.RunReport) {
	summary := report.Summary

	logger.Info().Msg(strings.Repeat("=", 60))
	logger.Info().Msg("📊 TEST RESULTS SUMMARY")
	logger.Info().Msg(strings.Repeat("=", 60))
	logger.Info().Msgf("Total Tests: %d", summary.Total)
	logger.Info().Msgf("✅ Passed: %d", summary.Passed)
	logger.Info().Msgf("❌ Failed: %d", summary.Failed)
	logger.Info().Msgf("⚠️  Unknown: %d", summary.Unknown)
	logger.Info().Msgf("Success Rate: %s", summary.RateString())

	for _, r := range report.Records {
		if r.Status == models.StatusPass {
			continue
		}
		logger.Warn().
			Str("test", r.Test).
			Str("status", string(r.Status)).
			Str("error", r.Error).
			Msg("Non-passing check")
	}

	logger.Info().
		Str("run_id", report.ID).
		Int64("seed", report.Seed).
		Dur("duration", report.Duration()).
		Msg("Run complete")
}
