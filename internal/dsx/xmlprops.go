package dsx

import (
	"encoding/xml"
	"io"
	"strings"
)

// readProperties walks a connector XMLProperties fragment and returns the first
// non-empty text (CDATA included) of every element, keyed by local name.
// The fragments often declare UTF-16 while actually being ASCII, and may be
// truncated; decoding stops at the first error and keeps what was read.
func readProperties(raw string) map[string]string {
	props := make(map[string]string)

	dec := xml.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.Strict = false
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	type open struct {
		name string
		text strings.Builder
	}
	var stack []*open

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, &open{name: t.Name.Local})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := props[top.name]; seen {
				continue
			}
			if v := strings.TrimSpace(top.text.String()); v != "" {
				props[top.name] = v
			}
		}
	}
	return props
}
