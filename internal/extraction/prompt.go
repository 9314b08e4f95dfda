package extraction

// Instruction is the fixed task description attached to every inference
// request. It pairs with the contact array schema in pkg/models: the schema
// constrains the shape, this text tells the model how to fill it.
const Instruction = `You are given photographs of business cards. For each image:
1. Scan all visible text, logos, and QR codes on the card.
2. Categorize every piece of information into the fields of the output schema
   (name, job title, company name, emails, phone numbers, address, website,
   LinkedIn URL, LINE ID, QR code URL, other info).
3. Emit exactly one JSON object per distinct person found across ALL of the
   provided images. A single image may contain zero, one, or several cards,
   and details for one person may span multiple images.
4. Omit the key entirely for any field that is not present on the card; never
   emit empty strings or empty arrays.
5. The person's full name is mandatory on every object.
Return only the JSON array described by the schema.`
