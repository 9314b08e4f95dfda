package extraction

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	apperrors "go-card-extractor/internal/errors"
	"go-card-extractor/pkg/models"
)

// csvHeader is the fixed column set of a contact export.
var csvHeader = []string{
	"Name", "Job Title", "Company", "Emails", "Phone Numbers",
	"Address", "Website", "LinkedIn", "LINE ID", "QR Code", "Other",
}

// listSeparator joins multi-valued fields inside one CSV cell.
const listSeparator = "; "

// WriteCSV writes one header row plus one row per contact. Absent fields
// become empty cells; quoting and escaping are handled by encoding/csv.
func WriteCSV(w io.Writer, contacts []models.ContactInfo) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return apperrors.NewInternalError("failed to write CSV header", err)
	}
	for i, c := range contacts {
		row := []string{
			c.Name,
			deref(c.JobTitle),
			deref(c.CompanyName),
			strings.Join(c.Email, listSeparator),
			strings.Join(c.PhoneNumber, listSeparator),
			deref(c.Address),
			deref(c.Website),
			deref(c.LinkedinURL),
			deref(c.LineID),
			deref(c.QRCodeURL),
			deref(c.OtherInfo),
		}
		if err := cw.Write(row); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to write CSV row %d", i), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.NewInternalError("failed to flush CSV output", err)
	}
	return nil
}

// ClipboardText assembles one contact as "Label: value" lines, skipping
// absent fields, in the card's reading order.
func ClipboardText(c models.ContactInfo) string {
	var b strings.Builder
	writeLine(&b, "Name", c.Name)
	writeLine(&b, "Job Title", deref(c.JobTitle))
	writeLine(&b, "Company", deref(c.CompanyName))
	writeLine(&b, "Email", strings.Join(c.Email, listSeparator))
	writeLine(&b, "Phone", strings.Join(c.PhoneNumber, listSeparator))
	writeLine(&b, "Address", deref(c.Address))
	writeLine(&b, "Website", deref(c.Website))
	writeLine(&b, "LinkedIn", deref(c.LinkedinURL))
	writeLine(&b, "LINE ID", deref(c.LineID))
	writeLine(&b, "QR Code", deref(c.QRCodeURL))
	writeLine(&b, "Other", deref(c.OtherInfo))
	return strings.TrimRight(b.String(), "\n")
}

// ClipboardTextAll joins per-contact blocks with a blank line.
func ClipboardTextAll(contacts []models.ContactInfo) string {
	blocks := make([]string, 0, len(contacts))
	for _, c := range contacts {
		blocks = append(blocks, ClipboardText(c))
	}
	return strings.Join(blocks, "\n\n")
}

func writeLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
