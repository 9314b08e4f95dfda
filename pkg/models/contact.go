package models

// ContactInfo is one extracted person. Name is the only required field; every
// optional field is either a value or absent (nil), never an empty string or
// an empty slice. Records are immutable once built.
type ContactInfo struct {
	Name        string   `json:"name"`
	JobTitle    *string  `json:"jobTitle,omitempty"`
	CompanyName *string  `json:"companyName,omitempty"`
	Email       []string `json:"email,omitempty"`
	PhoneNumber []string `json:"phoneNumber,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Website     *string  `json:"website,omitempty"`
	LinkedinURL *string  `json:"linkedinUrl,omitempty"`
	LineID      *string  `json:"lineId,omitempty"`
	QRCodeURL   *string  `json:"qrCodeUrl,omitempty"`
	OtherInfo   *string  `json:"otherInfo,omitempty"`
}

// Clone returns a deep copy so merge passes never alias the original slices.
func (c ContactInfo) Clone() ContactInfo {
	out := c
	out.JobTitle = cloneString(c.JobTitle)
	out.CompanyName = cloneString(c.CompanyName)
	out.Address = cloneString(c.Address)
	out.Website = cloneString(c.Website)
	out.LinkedinURL = cloneString(c.LinkedinURL)
	out.LineID = cloneString(c.LineID)
	out.QRCodeURL = cloneString(c.QRCodeURL)
	out.OtherInfo = cloneString(c.OtherInfo)
	if c.Email != nil {
		out.Email = append([]string(nil), c.Email...)
	}
	if c.PhoneNumber != nil {
		out.PhoneNumber = append([]string(nil), c.PhoneNumber...)
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
