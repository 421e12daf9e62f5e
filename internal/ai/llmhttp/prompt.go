package llmhttp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sampling settings used by every provider. Documentation should be
// reproducible rather than creative.
const (
	Temperature = 0.1
	MaxTokens   = 4096
)

// SystemPrompt frames the model as a DataStage documentation writer.
const SystemPrompt = `You are an experienced IBM DataStage ETL technical writer. You turn extracted job metadata into complete, accurate technical documentation that lets a developer maintain the job without other references.

Only state facts that are present in the metadata. When information is missing, say so instead of guessing.

Write Markdown with numbered sections (1, 1.1, 1.2) covering:
1. Overview: job name, job type and purpose.
2. Parameters: a table of name, type, default and prompt.
3. Sources: systems, tables and the full extraction SQL in code blocks.
4. Targets: tables, write modes and pre-load behaviour such as truncation.
5. Transformations and lookups: rules in code blocks, lookup keys and failure handling.
6. Data flow: the path from every source to every target.
7. Operational notes: sorting, aggregation, surrogate keys and anything unusual.

If the job is a sequence job, describe how the invoked jobs are ordered.`

// UserPrompt wraps the serialized job metadata for one request.
func UserPrompt(jobName string, metadata []byte) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, metadata, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(metadata)
	}
	return fmt.Sprintf("Create technical documentation for the DataStage job %q from the metadata below.\n\n```json\n%s\n```\n\nDocument every source, target, transformation rule and parameter. Use tables for structured data and code blocks for SQL and derivations.",
		jobName, pretty.String())
}
