// Package dsx recovers a normalized job-metadata model from DataStage DSX exports.
//
// DSX has no published grammar. The scanner in this file makes a single
// line-oriented pass and produces typed spans: record boundaries
// (BEGIN/END DSRECORD), sub-record boundaries (BEGIN/END DSSUBRECORD), quoted
// fields (Key "value") and multi-line value fields delimited by =+=+=+=.
// Extractors query those spans instead of re-deriving patterns over raw text.
package dsx

import (
	"regexp"
	"strings"
)

const valueSentinel = "=+=+=+="

// Span is a half-open byte range [Start, End) into the document text.
type Span struct {
	Start int
	End   int
}

// Field is a single key/value entry. Depth is 0 for record-level fields and
// greater than 0 inside sub-records.
type Field struct {
	Key       string
	Value     string
	Pos       int
	Depth     int
	Multiline bool
}

// SubRecord is an outermost BEGIN/END DSSUBRECORD block.
type SubRecord struct {
	Span   Span
	Fields []Field
}

// Field returns the first value for key in the sub-record.
func (s SubRecord) Field(key string) (string, bool) {
	return firstField(s.Fields, key)
}

// Record is one BEGIN/END DSRECORD block.
type Record struct {
	Span   Span
	fields []Field
	subs   []SubRecord
}

// Fields returns every field in the record, sub-record fields included, in document order.
func (r *Record) Fields() []Field { return r.fields }

// SubRecords returns the record's outermost sub-records in document order.
func (r *Record) SubRecords() []SubRecord { return r.subs }

// Field returns the first value for key anywhere in the record.
func (r *Record) Field(key string) (string, bool) {
	return firstField(r.fields, key)
}

// TopField returns the first record-level value for key, ignoring sub-records.
func (r *Record) TopField(key string) (string, bool) {
	for _, f := range r.fields {
		if f.Depth == 0 && f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Document is a scanned DSX text.
type Document struct {
	text    string
	records []*Record
	fields  []Field
	subs    []SubRecord
	values  []Span
}

// Text returns the full document text.
func (d *Document) Text() string { return d.text }

// Slice returns the text covered by s, clamped to the document bounds.
func (d *Document) Slice(s Span) string {
	s = d.clamp(s)
	return d.text[s.Start:s.End]
}

// Records returns record spans in document order.
func (d *Document) Records() []*Record { return d.records }

// Fields returns every field in the document in order, including fields outside records.
func (d *Document) Fields() []Field { return d.fields }

// SubRecords returns every outermost sub-record in document order, whether or
// not it sits inside a record.
func (d *Document) SubRecords() []SubRecord { return d.subs }

// ValueBlocks returns the content spans of all multi-line values.
func (d *Document) ValueBlocks() []Span { return d.values }

// Field returns the first value for key anywhere in the document.
func (d *Document) Field(key string) (string, bool) {
	return firstField(d.fields, key)
}

// FindSpans returns every match of re inside scope as absolute spans. When re
// has capture groups, the first group's span is returned instead of the whole match.
// Unmatched optional groups are skipped.
func (d *Document) FindSpans(re *regexp.Regexp, scope Span) []Span {
	scope = d.clamp(scope)
	window := d.text[scope.Start:scope.End]
	var spans []Span
	for _, loc := range re.FindAllStringSubmatchIndex(window, -1) {
		start, end := loc[0], loc[1]
		if len(loc) >= 4 {
			start, end = loc[2], loc[3]
		}
		if start < 0 {
			continue
		}
		spans = append(spans, Span{Start: scope.Start + start, End: scope.Start + end})
	}
	return spans
}

func (d *Document) clamp(s Span) Span {
	if s.Start < 0 {
		s.Start = 0
	}
	if s.End > len(d.text) {
		s.End = len(d.text)
	}
	if s.End < s.Start {
		s.End = s.Start
	}
	return s
}

// Scan tokenizes text. It never fails: malformed structure yields fewer spans.
func Scan(text string) *Document {
	d := &Document{text: text}

	var (
		current  *Record
		depth    int
		subStart int
		subFlds  []Field
	)

	closeRecord := func(end int) {
		if current == nil {
			return
		}
		current.Span.End = end
		d.records = append(d.records, current)
		current = nil
		depth = 0
		subFlds = nil
	}

	pos := 0
	for pos < len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += pos + 1
		}
		line := text[pos:lineEnd]
		trimmed := strings.TrimSpace(line)

		switch trimmed {
		case "BEGIN DSRECORD":
			closeRecord(pos)
			current = &Record{Span: Span{Start: pos}}
			pos = lineEnd
			continue
		case "END DSRECORD":
			closeRecord(lineEnd)
			pos = lineEnd
			continue
		case "BEGIN DSSUBRECORD":
			if depth == 0 {
				subStart = pos
				subFlds = nil
			}
			depth++
			pos = lineEnd
			continue
		case "END DSSUBRECORD":
			if depth > 0 {
				depth--
				if depth == 0 {
					sub := SubRecord{Span: Span{Start: subStart, End: lineEnd}, Fields: subFlds}
					d.subs = append(d.subs, sub)
					if current != nil {
						current.subs = append(current.subs, sub)
					}
					subFlds = nil
				}
			}
			pos = lineEnd
			continue
		}

		f, next, ok := scanField(text, pos, lineEnd)
		if !ok {
			pos = lineEnd
			continue
		}
		f.Depth = depth
		if f.Multiline {
			start := f.Pos + strings.Index(text[f.Pos:], valueSentinel) + len(valueSentinel)
			d.values = append(d.values, Span{Start: start, End: start + len(f.Value)})
		}
		d.fields = append(d.fields, f)
		if depth > 0 {
			subFlds = append(subFlds, f)
		}
		if current != nil {
			current.fields = append(current.fields, f)
		}
		pos = next
	}
	closeRecord(len(text))

	return d
}

// scanField parses `Key "value"` or `Key =+=+=+=...=+=+=+=` starting at the
// line [lineStart, lineEnd). It returns the field and the offset to resume scanning.
func scanField(text string, lineStart, lineEnd int) (Field, int, bool) {
	i := lineStart
	for i < lineEnd && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	keyStart := i
	for i < lineEnd && isKeyByte(text[i]) {
		i++
	}
	if i == keyStart || i >= lineEnd || (text[i] != ' ' && text[i] != '\t') {
		return Field{}, lineEnd, false
	}
	key := text[keyStart:i]
	for i < lineEnd && (text[i] == ' ' || text[i] == '\t') {
		i++
	}

	if strings.HasPrefix(text[i:], valueSentinel) {
		start := i + len(valueSentinel)
		end := strings.Index(text[start:], valueSentinel)
		next := len(text)
		if end < 0 {
			end = len(text)
		} else {
			end += start
			next = end + len(valueSentinel)
			if nl := strings.IndexByte(text[next:], '\n'); nl >= 0 {
				next += nl + 1
			} else {
				next = len(text)
			}
		}
		return Field{Key: key, Value: text[start:end], Pos: keyStart, Multiline: true}, next, true
	}

	if i < lineEnd && text[i] == '"' {
		return Field{Key: key, Value: unquote(text[i+1 : lineEnd]), Pos: keyStart}, lineEnd, true
	}
	return Field{}, lineEnd, false
}

// unquote reads up to the first unescaped quote, unescaping \" and \\.
func unquote(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\'):
			b.WriteByte(s[i+1])
			i++
		case c == '"':
			return b.String()
		default:
			b.WriteByte(c)
		}
	}
	return strings.TrimRight(b.String(), "\r\n")
}

func isKeyByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func firstField(fields []Field, key string) (string, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}
