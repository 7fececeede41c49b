package mcpserver

// ReportFormatContract describes the JSON a generator endpoint must return
// so the service can show a structured Recent Focus report.
const ReportFormatContract = `# Recent Focus Report Format

A generator receives a POST with this JSON body:

` + "```" + `json
{
  "provider_id": "openai",
  "model_name": "gpt-4o-mini",
  "limit": 5,
  "digests": [
    {
      "noteId": "work/plan.md",
      "noteTitle": "Q2 plan",
      "notebookTitle": "work",
      "createdAt": "2026-04-02T09:00:00Z",
      "headings": ["Goals"],
      "bullets": ["ship the importer"],
      "snippet": "Most of the week went to..."
    }
  ]
}
` + "```" + `

Digests are ordered newest first. Completed checklist items and fenced code
never appear in them; a code block shows up as "[code block omitted]".

## Response

` + "```" + `json
{
  "report": {
    "headline": "Shipping the importer",
    "summary": "Two short paragraphs.",
    "themes": [
      {"title": "Importer", "detail": "...", "note_ids": ["work/plan.md"]}
    ],
    "next_steps": ["Write the migration guide"]
  },
  "markdown": "optional free text"
}
` + "```" + `

## Rules

1. Either ` + "`" + `report` + "`" + ` or ` + "`" + `markdown` + "`" + ` must be present.
2. Without ` + "`" + `report` + "`" + `, a JSON object embedded in ` + "`" + `markdown` + "`" + ` is parsed as the
   report. The span from the first ` + "`" + `{` + "`" + ` to the last ` + "`" + `}` + "`" + ` is used, so emit at most one object.
3. ` + "`" + `note_ids` + "`" + ` must reference ` + "`" + `noteId` + "`" + ` values from the request.
4. Non-2xx responses are shown to the user as an error. They are not retried.
`
