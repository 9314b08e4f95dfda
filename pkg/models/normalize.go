package models

import (
	"encoding/json"
	"fmt"

	apperrors "go-card-extractor/internal/errors"
)

// rawContact mirrors one element of the model's reply before normalization.
// All fields are optional at this layer so lenient replies still decode; the
// schema check and normalization enforce the real contract.
type rawContact struct {
	Name        string   `json:"name"`
	JobTitle    string   `json:"jobTitle"`
	CompanyName string   `json:"companyName"`
	Email       []string `json:"email"`
	PhoneNumber []string `json:"phoneNumber"`
	Address     string   `json:"address"`
	Website     string   `json:"website"`
	LinkedinURL string   `json:"linkedinUrl"`
	LineID      string   `json:"lineId"`
	QRCodeURL   string   `json:"qrCodeUrl"`
	OtherInfo   string   `json:"otherInfo"`
}

// ParseContacts turns a structured-output reply body into normalized contact
// records, preserving the model's emission order.
//
// Contract violations fail the whole parse: a body that is not JSON, a
// top-level value that is not an array, a schema-invalid element, or an
// element without a name. Falsy-but-present optional fields (empty string,
// empty array, null) are coerced to absence.
func ParseContacts(data []byte) ([]ContactInfo, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewResponseFormatError("model response is not valid JSON", err)
	}

	arr, ok := doc.([]interface{})
	if !ok {
		return nil, apperrors.NewResponseFormatError("model response is not a JSON array", nil)
	}

	if err := ValidateContacts(doc); err != nil {
		return nil, apperrors.NewResponseFormatError("model response does not match the contact schema", err)
	}

	contacts := make([]ContactInfo, 0, len(arr))
	for i := range arr {
		elem, err := json.Marshal(arr[i])
		if err != nil {
			return nil, apperrors.NewInternalError("failed to re-encode response element", err)
		}
		var raw rawContact
		if err := json.Unmarshal(elem, &raw); err != nil {
			return nil, apperrors.NewResponseFormatError(
				fmt.Sprintf("response element %d has an unexpected shape", i), err)
		}
		contact, err := normalizeContact(i, raw)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// normalizeContact applies the absence rule to one raw record. A missing name
// is rejected rather than propagated: the schema marks it required, so its
// absence means the model ignored the output contract.
func normalizeContact(index int, raw rawContact) (ContactInfo, error) {
	if raw.Name == "" {
		return ContactInfo{}, apperrors.NewResponseFormatError(
			fmt.Sprintf("response element %d is missing the required name field", index), nil)
	}

	return ContactInfo{
		Name:        raw.Name,
		JobTitle:    optionalString(raw.JobTitle),
		CompanyName: optionalString(raw.CompanyName),
		Email:       optionalList(raw.Email),
		PhoneNumber: optionalList(raw.PhoneNumber),
		Address:     optionalString(raw.Address),
		Website:     optionalString(raw.Website),
		LinkedinURL: optionalString(raw.LinkedinURL),
		LineID:      optionalString(raw.LineID),
		QRCodeURL:   optionalString(raw.QRCodeURL),
		OtherInfo:   optionalString(raw.OtherInfo),
	}, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optionalList drops empty elements; a list left empty becomes absent.
func optionalList(values []string) []string {
	var out []string
	for _, v := range values {
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
