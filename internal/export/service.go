package export

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/grievance-portal/internal/grievance"
)

type Source interface {
	List(ctx context.Context, filter grievance.Filter) ([]grievance.Grievance, error)
}

// File is a rendered export ready to be downloaded or written to disk.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Count       int
}

type Service struct {
	source  Source
	csvMode CSVMode
	now     func() time.Time
	logger  *slog.Logger
}

func NewService(source Source, csvMode CSVMode, logger *slog.Logger) *Service {
	if csvMode == "" {
		csvMode = CSVModeRFC4180
	}
	if csvMode == CSVModeLegacy {
		logger.Warn("legacy CSV export enabled, cells are not escaped")
	}
	return &Service{
		source:  source,
		csvMode: csvMode,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Export(ctx context.Context, format Format) (*File, error) {
	grievances, err := s.source.List(ctx, grievance.Filter{})
	if err != nil {
		s.logger.Error("failed to load grievances for export", "error", err)
		return nil, err
	}

	at := s.now()
	file := &File{
		Name:        FileName(format, at),
		ContentType: format.ContentType(),
		Count:       len(grievances),
	}

	switch format {
	case FormatCSV:
		file.Data = ToCSV(grievances, s.csvMode)
	default:
		file.Data, err = ToJSON(grievances, at)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("export generated", "file", file.Name, "count", file.Count, "bytes", len(file.Data))
	return file, nil
}
