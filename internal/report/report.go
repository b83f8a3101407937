// Package report renders the course progress report PDF for one training
// session. Rendering is deterministic: identical inputs produce byte
// identical documents.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/piperalpha/training/internal/curriculum"
	"github.com/piperalpha/training/internal/model"
	"github.com/piperalpha/training/internal/session"
)

const (
	title    = "COURSE PROGRESS REPORT"
	subtitle = "PIPER ALPHA"

	dateLayout = "January 2, 2006"
)

// ErrInvalidRecord signals a record that violates the seven-chapter
// canonical-order invariant. It indicates a bug upstream, never bad user
// input.
var ErrInvalidRecord = errors.New("session record does not match the canonical chapter layout")

// Render lays out the report for one session: header, trainee details,
// per-chapter table, remarks. The caller supplies the trainee's display
// name; everything else comes from the record and its derived stats.
func Render(traineeName, ownerEmail string, createdAt time.Time, rec model.SessionRecord, stats session.Stats) ([]byte, error) {
	if err := checkCanonical(rec); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor(subtitle+" Training", false)
	// Pin the document dates so output depends only on the inputs.
	pdf.SetCreationDate(createdAt.UTC())
	pdf.SetModificationDate(createdAt.UTC())
	pdf.SetMargins(35, 30, 35)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	// Header block.
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, subtitle, "", 1, "C", false, 0, "")
	// Band reserved for the operator logo; the artwork is stamped in
	// post-processing, not here.
	pdf.Ln(18)

	// Trainee details block.
	sectionHeading(pdf, "TRAINEE DETAILS")
	detail(pdf, "Name", traineeName)
	detail(pdf, "Email", ownerEmail)
	detail(pdf, "Date", createdAt.UTC().Format(dateLayout))
	detail(pdf, "Session ID", fmt.Sprintf("%d", rec.ID))
	pdf.Ln(12)

	// Performance table: seven rows, course order.
	chapterTable(pdf, rec.Chapters)
	pdf.Ln(12)

	// Remarks block.
	sectionHeading(pdf, "REMARKS")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, Remarks(stats), "", "J", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Remarks builds the auto-generated summary sentence. With no scored
// chapters the average clause is omitted entirely rather than rendered as a
// zero or a placeholder.
func Remarks(stats session.Stats) string {
	if stats.AverageScore == nil {
		return fmt.Sprintf("Trainee has completed %d out of %d chapters.",
			stats.CompletedCount, curriculum.Count)
	}
	return fmt.Sprintf("Trainee has completed %d out of %d chapters with an average score of %.1f.",
		stats.CompletedCount, curriculum.Count, *stats.AverageScore)
}

// Filename builds the download name for a rendered report.
func Filename(traineeName string, createdAt time.Time) string {
	name := strings.ReplaceAll(traineeName, " ", "_")
	return fmt.Sprintf("PiperAlpha_Report_%s_%s.pdf", name, createdAt.UTC().Format("20060102_150405"))
}

// checkCanonical verifies the seven-chapter course-order invariant that the
// normalizer guarantees for every persisted record.
func checkCanonical(rec model.SessionRecord) error {
	if len(rec.Chapters) != curriculum.Count {
		return fmt.Errorf("%w: %d chapters", ErrInvalidRecord, len(rec.Chapters))
	}
	for i, ch := range curriculum.Chapters() {
		if rec.Chapters[i].Chapter != ch {
			return fmt.Errorf("%w: position %d holds %q", ErrInvalidRecord, i, rec.Chapters[i].Chapter)
		}
	}
	return nil
}

func sectionHeading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, text, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func detail(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(28, 6, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func chapterTable(pdf *fpdf.Fpdf, chapters []model.ChapterResult) {
	const (
		colChapter = 75.0
		colScore   = 25.0
		colStatus  = 40.0
		rowHeight  = 9.0
	)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.CellFormat(colChapter, rowHeight, "Chapter", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colScore, rowHeight, "Score", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colStatus, rowHeight, "Status", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetLineWidth(0.2)
	pdf.SetFillColor(245, 245, 245)
	for i, c := range chapters {
		// Alternating fill is purely visual; it carries no meaning.
		fill := i%2 == 1
		score := c.Score.String()
		if !c.Score.Scored() {
			score = "N/A"
		}
		pdf.CellFormat(colChapter, rowHeight, string(c.Chapter), "B", 0, "L", fill, 0, "")
		pdf.CellFormat(colScore, rowHeight, score, "B", 0, "L", fill, 0, "")
		pdf.CellFormat(colStatus, rowHeight, string(c.Status), "B", 1, "L", fill, 0, "")
	}
}
