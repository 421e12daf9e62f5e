package dsx

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

var (
	// ErrUnreadableDocument is returned for input that is not DSX text.
	ErrUnreadableDocument = errors.New("document is not readable text")
	// ErrNoJobInformation is returned when the text carries no records and no job identifier.
	ErrNoJobInformation = errors.New("No job information found")
)

// Parser assembles a JobMetadata from DSX text. A Parser is safe for concurrent use.
type Parser struct {
	opts     Options
	decoders map[string]Decoder
}

// NewParser creates a Parser. Zero-valued options fall back to the defaults.
func NewParser(opts Options) *Parser {
	opts.applyDefaults()
	return &Parser{opts: opts, decoders: decoders}
}

// Parse extracts the job model from one document. name is used only for
// error context by callers; extraction depends on data alone.
func (p *Parser) Parse(name string, data []byte) (*models.JobMetadata, error) {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) && !looksLikeText(data) {
		return nil, ErrUnreadableDocument
	}

	doc := Scan(string(data))
	if len(doc.Records()) == 0 {
		if _, ok := doc.Field("Identifier"); !ok {
			return nil, ErrNoJobInformation
		}
	}

	tables := buildStageTables(doc)

	m := &models.JobMetadata{}
	extractIdentity(doc, m)
	m.Parameters = extractParameters(doc)
	m.Sources, m.Targets = extractConnectors(doc, tables)
	m.Targets = append(m.Targets, extractDatasetTargets(doc, tables, p.opts, m.Targets)...)
	m.Transforms = extractTransforms(doc, p.opts.Rules)
	m.Lookups = extractLookups(doc)
	m.SpecializedStages = p.decodeSpecialized(doc, tables)
	m.Flow = extractFlow(doc, tables)
	m.Metadata = models.ExtractionMetadata{
		ExtractedAt:   p.opts.Clock(),
		SchemaVersion: models.SchemaVersion,
	}
	return m, nil
}

// ParseDocument parses data and validates the result.
func (p *Parser) ParseDocument(name string, data []byte) (*models.ParsedDocument, error) {
	m, err := p.Parse(name, data)
	if err != nil {
		return nil, err
	}
	return &models.ParsedDocument{
		DocumentName: name,
		Model:        m,
		Validation:   Validate(m),
	}, nil
}

// decodeSpecialized runs the registered decoder for every stage in the order
// stages first appear in the stage-type table.
func (p *Parser) decodeSpecialized(doc *Document, tables stageTables) []models.SpecializedStage {
	stages := make([]models.SpecializedStage, 0)
	for _, name := range tables.order {
		typ := tables.types[name]
		dec, ok := p.decoders[typ]
		if !ok {
			continue
		}
		rec := stageRecord(doc, name, typ)
		if rec == nil {
			continue
		}
		stages = append(stages, dec(name, rec))
	}
	return stages
}

// stageRecord returns the last record declaring name with stage type typ,
// matching the stage-type table where later declarations win.
func stageRecord(doc *Document, name, typ string) *Record {
	var found *Record
	for _, r := range doc.Records() {
		n, _ := r.TopField("Name")
		t, _ := r.TopField("StageType")
		if strings.TrimSpace(n) == name && t == typ {
			found = r
		}
	}
	return found
}

// looksLikeText accepts legacy single-byte exports that are not valid UTF-8
// but contain no control characters other than whitespace.
func looksLikeText(data []byte) bool {
	for _, c := range data {
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			return false
		}
	}
	return true
}
