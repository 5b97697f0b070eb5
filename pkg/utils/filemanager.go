// =============================================================================
// XLSX to SQL Migration - File Manager Utility
// =============================================================================
//
// This module owns everything the migration writes to disk besides the log:
//   - Directory management
//   - Script archival (the previous script is kept before overwriting)
//   - Script writing
//   - Run summary generation
//
// ARCHIVAL STRATEGY:
//   - Before a script is overwritten, the existing file is moved to the
//     archive directory with a timestamp suffix:
//       output/egresos.sql -> output_archive/egresos_20250520_140309.sql
//   - Scripts are written to a temporary file and renamed into place, so a
//     failed write never leaves a half-written script behind.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the migration.
type FileManager struct {
	// OutputDir is where the SQL scripts are written.
	OutputDir string

	// OutputArchiveDir receives previous versions of the scripts.
	OutputArchiveDir string

	// LogDir holds the log file and the run summaries.
	LogDir string

	// Now stamps archive names; defaults to time.Now.
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, outputArchiveDir, logDir string) *FileManager {
	return &FileManager{
		OutputDir:        outputDir,
		OutputArchiveDir: outputArchiveDir,
		LogDir:           logDir,
		Now:              time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.OutputArchiveDir, fm.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// SCRIPT ARCHIVAL AND WRITING
// =============================================================================

// ArchiveExisting moves filePath into the archive directory.
//
// PARAMETERS:
//   - filePath: The script about to be overwritten.
//
// RETURNS:
//   - The archived path, or "" when there was nothing to archive.
//   - An error if the move fails.
func (fm *FileManager) ArchiveExisting(filePath string) (string, error) {
	if !FileExists(filePath) {
		return "", nil
	}

	archivePath := fm.archivePath(filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; copy and delete instead.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// archivePath builds a free archive name: <base>_<timestamp>[_n]<ext>.
func (fm *FileManager) archivePath(filePath string) string {
	now := time.Now
	if fm.Now != nil {
		now = fm.Now
	}

	ext := filepath.Ext(filePath)
	base := strings.TrimSuffix(filepath.Base(filePath), ext)
	stamp := now().Format(timestampLayout)

	candidate := filepath.Join(fm.OutputArchiveDir, fmt.Sprintf("%s_%s%s", base, stamp, ext))
	for n := 2; FileExists(candidate); n++ {
		candidate = filepath.Join(fm.OutputArchiveDir, fmt.Sprintf("%s_%s_%d%s", base, stamp, n, ext))
	}
	return candidate
}

// WriteScript archives any previous version of filePath and writes data in
// its place.
//
// RETURNS:
//   - The archived path of the previous version, or "".
//   - An error if archival or writing fails.
func (fm *FileManager) WriteScript(filePath string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	archived, err := fm.ArchiveExisting(filePath)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), "."+filepath.Base(filePath)+".*")
	if err != nil {
		return archived, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return archived, fmt.Errorf("failed to write script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return archived, fmt.Errorf("failed to close script: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return archived, fmt.Errorf("failed to move script into place: %w", err)
	}

	return archived, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about one migration run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	DryRun    bool
	Stages    []StageSummary

	// Failure is the fatal error that stopped the run, if any.
	Failure string
}

// StageSummary describes one completed stage.
type StageSummary struct {
	Stage    string
	File     string
	Archived string
	Records  int
	Warnings []string
	Duration time.Duration
}

// WriteSummaryLog writes a run summary to a text file.
//
// PARAMETERS:
//   - summary: The run summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	shortID := summary.RunID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	summaryFileName := fmt.Sprintf("migration_summary_%s_%s.txt", summary.StartTime.Format(timestampLayout), shortID)
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	rule := strings.Repeat("=", 80) + "\n"

	status := "completed"
	if summary.Failure != "" {
		status = "FAILED"
	}

	fmt.Fprintf(writer, "XLSX to SQL Migration - Run Summary\n%s\n", rule)
	fmt.Fprintf(writer, "Run Information:\n")
	fmt.Fprintf(writer, "  Run ID:     %s\n", summary.RunID)
	fmt.Fprintf(writer, "  Start Time: %s\n", summary.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "  End Time:   %s\n", summary.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "  Duration:   %s\n", summary.EndTime.Sub(summary.StartTime).String())
	fmt.Fprintf(writer, "  Dry Run:    %t\n", summary.DryRun)
	fmt.Fprintf(writer, "  Status:     %s\n\n", status)

	if len(summary.Stages) > 0 {
		writer.WriteString("Stages:\n")
		writer.WriteString(strings.Repeat("-", 80) + "\n")
		for _, s := range summary.Stages {
			fmt.Fprintf(writer, "  Stage:    %s\n", s.Stage)
			fmt.Fprintf(writer, "  File:     %s\n", s.File)
			if s.Archived != "" {
				fmt.Fprintf(writer, "  Previous: %s\n", s.Archived)
			}
			fmt.Fprintf(writer, "  Records:  %d\n", s.Records)
			fmt.Fprintf(writer, "  Time:     %s\n", s.Duration.String())
			fmt.Fprintf(writer, "  Warnings: %d\n", len(s.Warnings))
			for _, w := range s.Warnings {
				fmt.Fprintf(writer, "    - %s\n", w)
			}
			writer.WriteString("\n")
		}
	}

	if summary.Failure != "" {
		writer.WriteString("Failure:\n")
		writer.WriteString(strings.Repeat("-", 80) + "\n")
		fmt.Fprintf(writer, "%s\n\n", summary.Failure)
	}

	writer.WriteString(rule + "End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
