package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"host-prober/internal/logging"
)

// Generator creates static charts and a text summary of probe history
type Generator struct {
	db  *sql.DB
	log *logrus.Entry
}

// NewGenerator creates a new report generator
func NewGenerator(db *sql.DB) *Generator {
	return &Generator{db: db, log: logging.Component("report")}
}

// GenerateReport writes charts and a summary covering the last hours into
// a new timestamped directory under outputDir, and returns that directory
func (g *Generator) GenerateReport(outputDir string, hours int) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	reportDir := filepath.Join(outputDir, fmt.Sprintf("probe_report_%s", timestamp))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// Charts are best effort; the text summary is the primary artifact
	if err := g.generateAvailabilityChart(reportDir, hours); err != nil {
		g.log.WithError(err).Warn("Failed to generate availability chart")
	}

	if err := g.generateLatencyChart(reportDir, hours); err != nil {
		g.log.WithError(err).Warn("Failed to generate latency chart")
	}

	if err := g.generateFailureChart(reportDir, hours); err != nil {
		g.log.WithError(err).Warn("Failed to generate failure chart")
	}

	if err := g.generateTextReport(reportDir, hours); err != nil {
		return reportDir, fmt.Errorf("failed to generate text report: %w", err)
	}

	g.log.Infof("Report generated in: %s", reportDir)
	return reportDir, nil
}
