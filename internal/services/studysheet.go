package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"eduvid/internal/domain"
)

// StudySheetService renders a printable study sheet for a video: its
// narration, summary bullets and quiz questions on one page set.
type StudySheetService struct{}

func NewStudySheetService() *StudySheetService {
	return &StudySheetService{}
}

func (s *StudySheetService) Generate(video domain.Video, quiz domain.Quiz, summary, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure sheet directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Study sheet %s", video.ID), false)
	pdf.SetAuthor("eduvid", false)
	pdf.AddPage()

	title := video.Title
	if strings.TrimSpace(title) == "" {
		title = "Study sheet"
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	if len(video.TopicTags) > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Topics: %s", strings.Join(video.TopicTags, ", ")))
		pdf.Ln(6)
	}
	if created, err := time.Parse(time.RFC3339, video.CreatedAt); err == nil {
		pdf.Cell(0, 6, fmt.Sprintf("Created: %s", created.Format("02/01/2006 15:04")))
		pdf.Ln(12)
	} else {
		pdf.Ln(6)
	}

	s.writeSection(pdf, "Narration", video.Caption, false)
	pdf.Ln(8)
	s.writeSection(pdf, "Summary", summary, true)

	if quiz.Populated() {
		pdf.Ln(8)
		s.writeQuiz(pdf, quiz)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	return nil
}

func (s *StudySheetService) writeSection(pdf *gofpdf.Fpdf, title, content string, bullet bool) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) == 0 {
		pdf.MultiCell(0, 6, "(empty)", "", "L", false)
		return
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		text := line
		if bullet && !strings.HasPrefix(line, "-") {
			text = fmt.Sprintf("- %s", line)
		}
		pdf.MultiCell(0, 6, text, "", "L", false)
	}
}

func (s *StudySheetService) writeQuiz(pdf *gofpdf.Fpdf, quiz domain.Quiz) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Quiz")
	pdf.Ln(10)

	for i, q := range quiz.Questions {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, q.Text), "", "L", false)

		pdf.SetFont("Helvetica", "", 12)
		for j, opt := range q.Options {
			pdf.MultiCell(0, 6, fmt.Sprintf("   %c) %s", 'a'+j, opt), "", "L", false)
		}
		pdf.Ln(4)
	}
}
