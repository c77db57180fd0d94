package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

const (
	markdownExtensionConstant          = ".md"
	htmlExtensionConstant              = ".html"
	reportFilePermissionsConstant      = 0o644
	reportDirectoryPermissionsConstant = 0o755
	writeReportErrorTemplateConstant   = "failed to write report %s: %w"
	renderHTMLErrorTemplateConstant    = "failed to render HTML for %s: %w"
	reportWrittenMessageConstant       = "report written"
	reportPathLogFieldConstant         = "report_path"
	htmlPathLogFieldConstant           = "html_path"
)

// Writer persists rendered reports, optionally alongside an HTML rendition.
type Writer struct {
	fileSystem afero.Fs
	logger     *zap.Logger
	renderHTML bool
	htmlEngine goldmark.Markdown
}

// WriterOption customizes a Writer.
type WriterOption func(writer *Writer)

// WithHTMLOutput enables writing `<name>.html` next to every markdown report.
func WithHTMLOutput(enabled bool) WriterOption {
	return func(writer *Writer) {
		writer.renderHTML = enabled
	}
}

// NewWriter constructs a Writer.
func NewWriter(fileSystem afero.Fs, logger *zap.Logger, options ...WriterOption) *Writer {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	writer := &Writer{
		fileSystem: fileSystem,
		logger:     logger,
		htmlEngine: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	for _, option := range options {
		option(writer)
	}
	return writer
}

// Write overwrites reportPath with markdown.
func (writer *Writer) Write(reportPath string, markdown string) error {
	if directoryError := writer.fileSystem.MkdirAll(filepath.Dir(reportPath), reportDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(writeReportErrorTemplateConstant, reportPath, directoryError)
	}
	if writeError := afero.WriteFile(writer.fileSystem, reportPath, []byte(markdown), reportFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeReportErrorTemplateConstant, reportPath, writeError)
	}

	logFields := []zap.Field{zap.String(reportPathLogFieldConstant, reportPath)}
	if writer.renderHTML {
		htmlPath := HTMLPath(reportPath)
		var htmlBuffer bytes.Buffer
		if convertError := writer.htmlEngine.Convert([]byte(markdown), &htmlBuffer); convertError != nil {
			return fmt.Errorf(renderHTMLErrorTemplateConstant, reportPath, convertError)
		}
		if writeError := afero.WriteFile(writer.fileSystem, htmlPath, htmlBuffer.Bytes(), reportFilePermissionsConstant); writeError != nil {
			return fmt.Errorf(writeReportErrorTemplateConstant, htmlPath, writeError)
		}
		logFields = append(logFields, zap.String(htmlPathLogFieldConstant, htmlPath))
	}
	writer.logger.Info(reportWrittenMessageConstant, logFields...)
	return nil
}

// HTMLPath derives the HTML rendition path of a markdown report.
func HTMLPath(reportPath string) string {
	return strings.TrimSuffix(reportPath, markdownExtensionConstant) + htmlExtensionConstant
}
