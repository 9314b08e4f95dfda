package extraction

import (
	"strings"

	"github.com/arbovm/levenshtein"

	"go-card-extractor/pkg/models"
)

// DefaultNameDistance is the edit-distance cutoff for treating two extracted
// names as the same person (catches single-character OCR slips).
const DefaultNameDistance = 1

// MergeDuplicates collapses records whose normalized names are within
// maxDistance edits of each other. First occurrence wins its position in the
// output; later duplicates only fill fields the first record is missing and
// extend its email/phone lists with unseen values. The input is not mutated.
func MergeDuplicates(contacts []models.ContactInfo, maxDistance int) []models.ContactInfo {
	if len(contacts) < 2 {
		return contacts
	}

	var out []models.ContactInfo
	for _, c := range contacts {
		idx := -1
		for i := range out {
			if nameDistance(out[i].Name, c.Name) <= maxDistance {
				idx = i
				break
			}
		}
		if idx < 0 {
			out = append(out, c.Clone())
			continue
		}
		out[idx] = mergeInto(out[idx], c)
	}
	return out
}

func nameDistance(a, b string) int {
	return levenshtein.Distance(normalizeName(a), normalizeName(b))
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// mergeInto keeps every field base already has and fills gaps from dup.
func mergeInto(base, dup models.ContactInfo) models.ContactInfo {
	base.JobTitle = firstOf(base.JobTitle, dup.JobTitle)
	base.CompanyName = firstOf(base.CompanyName, dup.CompanyName)
	base.Address = firstOf(base.Address, dup.Address)
	base.Website = firstOf(base.Website, dup.Website)
	base.LinkedinURL = firstOf(base.LinkedinURL, dup.LinkedinURL)
	base.LineID = firstOf(base.LineID, dup.LineID)
	base.QRCodeURL = firstOf(base.QRCodeURL, dup.QRCodeURL)
	base.OtherInfo = firstOf(base.OtherInfo, dup.OtherInfo)
	base.Email = unionList(base.Email, dup.Email)
	base.PhoneNumber = unionList(base.PhoneNumber, dup.PhoneNumber)
	return base
}

func firstOf(a, b *string) *string {
	if a != nil {
		return a
	}
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// unionList appends unseen values from b, preserving a's order.
func unionList(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	out := append([]string(nil), a...)
	for _, v := range b {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
