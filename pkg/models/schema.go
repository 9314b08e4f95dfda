package models

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ContactSchemaName identifies the structured-output schema in requests.
const ContactSchemaName = "business_card_contacts"

// ContactSchemaJSON is the structured-output constraint sent with every
// inference request: an array of contact objects, name required per object.
// The same document is compiled below to validate what the model sends back.
const ContactSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "name": {"type": "string", "minLength": 1},
      "jobTitle": {"type": ["string", "null"]},
      "companyName": {"type": ["string", "null"]},
      "email": {"type": ["array", "null"], "items": {"type": "string"}},
      "phoneNumber": {"type": ["array", "null"], "items": {"type": "string"}},
      "address": {"type": ["string", "null"]},
      "website": {"type": ["string", "null"]},
      "linkedinUrl": {"type": ["string", "null"]},
      "lineId": {"type": ["string", "null"]},
      "qrCodeUrl": {"type": ["string", "null"]},
      "otherInfo": {"type": ["string", "null"]}
    },
    "required": ["name"],
    "additionalProperties": false
  }
}`

var contactSchema = jsonschema.MustCompileString("contacts.json", ContactSchemaJSON)

// ValidateContacts checks a decoded response document against the contact
// schema. The value must come from encoding/json (maps, slices, primitives).
func ValidateContacts(doc interface{}) error {
	return contactSchema.Validate(doc)
}
