package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type exportEntryLister interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error)
}

type exportSlotLister interface {
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
}

// ExportDocument is a rendered export ready to stream to the client.
type ExportDocument struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders class and teacher week views as CSV or PDF.
type ExportService struct {
	entries   exportEntryLister
	slots     exportSlotLister
	snapshots snapshotBuilder
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
	cfg       config.ExportsConfig
}

// NewExportService creates a new export service.
func NewExportService(entries exportEntryLister, slots exportSlotLister, snapshots snapshotBuilder, logger *zap.Logger, cfg config.ExportsConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		entries:   entries,
		slots:     slots,
		snapshots: snapshots,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		cfg:       cfg,
	}
}

// ClassWeek renders the timetable of one class.
func (s *ExportService) ClassWeek(ctx context.Context, classID, format string) (*ExportDocument, error) {
	snap, err := s.snapshots.Build(ctx)
	if err != nil {
		return nil, err
	}
	class := snap.ClassByID(classID)
	if class == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	entries, err := s.entries.List(ctx, models.TimetableFilter{ClassID: classID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	grid, err := s.buildGrid(ctx, snap, entries, func(entry models.TimetableEntry) string {
		label := s.subjectName(snap, entry.SubjectID)
		if room := snap.RoomByID(entry.RoomID); room != nil {
			label += fmt.Sprintf(" (%s)", room.Name)
		}
		return label
	})
	if err != nil {
		return nil, err
	}
	grid.Title = s.cfg.SchoolName
	grid.Subtitle = fmt.Sprintf("Weekly timetable for %s", class.Name)
	grid.FooterNote = s.cfg.FooterNote

	return s.render(grid, format, fmt.Sprintf("timetable-class-%s", slugify(class.Name)))
}

// TeacherWeek renders the timetable of one teacher.
func (s *ExportService) TeacherWeek(ctx context.Context, teacherID, format string) (*ExportDocument, error) {
	snap, err := s.snapshots.Build(ctx)
	if err != nil {
		return nil, err
	}
	teacher := snap.TeacherByID(teacherID)
	if teacher == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	entries, err := s.entries.List(ctx, models.TimetableFilter{TeacherID: teacherID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	grid, err := s.buildGrid(ctx, snap, entries, func(entry models.TimetableEntry) string {
		label := s.subjectName(snap, entry.SubjectID)
		if class := snap.ClassByID(entry.ClassID); class != nil {
			label += fmt.Sprintf(" (%s)", class.Name)
		}
		return label
	})
	if err != nil {
		return nil, err
	}
	grid.Title = s.cfg.SchoolName
	grid.Subtitle = fmt.Sprintf("Weekly timetable for %s", teacher.Name)
	grid.FooterNote = s.cfg.FooterNote

	return s.render(grid, format, fmt.Sprintf("timetable-teacher-%s", slugify(teacher.Name)))
}

func (s *ExportService) buildGrid(ctx context.Context, snap *solver.Snapshot, entries []models.TimetableEntry, label func(models.TimetableEntry) string) (export.WeekGrid, error) {
	days := make([]string, snap.Grid.Days)
	for i := range days {
		if i < len(dayNames) {
			days[i] = dayNames[i]
		} else {
			days[i] = fmt.Sprintf("Day %d", i+1)
		}
	}

	periods := make([]string, snap.Grid.PeriodsPerDay)
	for i := range periods {
		periods[i] = fmt.Sprintf("Period %d", i+1)
	}
	slots, err := s.slots.ListTimeSlots(ctx)
	if err == nil {
		for _, slot := range slots {
			if slot.DayIndex == 0 && slot.PeriodIndex < len(periods) {
				periods[slot.PeriodIndex] = fmt.Sprintf("P%d %s", slot.PeriodIndex+1, slot.StartTime)
			}
		}
	}

	grid := export.NewWeekGrid(days, periods)
	for _, entry := range entries {
		grid.Set(entry.DayIndex, entry.PeriodIndex, label(entry))
	}
	return grid, nil
}

func (s *ExportService) render(grid export.WeekGrid, format, basename string) (*ExportDocument, error) {
	switch strings.ToLower(format) {
	case "csv":
		content, err := s.csv.Render(grid)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportDocument{Content: content, ContentType: "text/csv", Filename: basename + ".csv"}, nil
	case "", "pdf":
		content, err := s.pdf.Render(grid)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportDocument{Content: content, ContentType: "application/pdf", Filename: basename + ".pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *ExportService) subjectName(snap *solver.Snapshot, subjectID string) string {
	if subject := snap.SubjectByID(subjectID); subject != nil {
		return subject.Name
	}
	return subjectID
}

func slugify(raw string) string {
	slug := strings.ToLower(strings.TrimSpace(raw))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	return strings.Trim(slug, "-")
}
