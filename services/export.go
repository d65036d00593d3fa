package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gosimple/slug"

	"phish-scoreboard/models"
)

var exportHeader = []string{
	"id", "fullName", "studentID", "college", "course", "address",
	"mobile", "email", "year", "cgpa", "opportunity", "created_at",
}

// ExportService serialises the participant registry to CSV.
type ExportService struct {
	Participants *ParticipantService
	Name         string
}

func NewExportService(participants *ParticipantService, name string) *ExportService {
	return &ExportService{Participants: participants, Name: name}
}

// Slug is the URL- and filename-safe form of the export name.
func (s *ExportService) Slug() string {
	if out := slug.Make(s.Name); out != "" {
		return out
	}
	return "participants"
}

// Filename is the attachment name offered to browsers.
func (s *ExportService) Filename() string {
	return s.Slug() + ".csv"
}

// CSV renders all participants, newest first. ErrNotFound when there is
// nothing to export.
func (s *ExportService) CSV(ctx context.Context) ([]byte, int, error) {
	participants, err := s.Participants.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	if len(participants) == 0 {
		return nil, 0, fmt.Errorf("%w: no data to export", ErrNotFound)
	}

	var buf bytes.Buffer
	if err := writeParticipantsCSV(&buf, participants); err != nil {
		return nil, 0, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), len(participants), nil
}

func writeParticipantsCSV(w io.Writer, participants []models.Participant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, p := range participants {
		row := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.FullName,
			p.ParticipantID,
			p.College,
			p.Course,
			p.Address,
			p.Mobile,
			p.Email,
			p.Year,
			p.CGPA,
			p.Opportunity,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
