package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes the document to JSON with stable key ordering: the
// files object is written in insertion order, not sorted, so repeated
// runs on identical input produce byte-identical output. encoding/json
// alone cannot do this for map keys, hence the hand-assembled object.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeField(&buf, "repo", d.Repo, true); err != nil {
		return nil, err
	}

	buf.WriteString(`,"languages":{`)
	for i, lc := range d.Languages {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(lc.Language)
		if err != nil {
			return nil, fmt.Errorf("encoding language key: %w", err)
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", lc.Count)
	}
	buf.WriteByte('}')

	if err := writeField(&buf, "dependencies", emptySlice(d.Dependencies), false); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "skipped", emptySkipped(d.Skipped), false); err != nil {
		return nil, err
	}

	buf.WriteString(`,"files":{`)
	for i := range d.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Records[i].Path)
		if err != nil {
			return nil, fmt.Errorf("encoding path key: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(&d.Records[i])
		if err != nil {
			return nil, fmt.Errorf("encoding record %s: %w", d.Records[i].Path, err)
		}
		buf.Write(val)
	}
	buf.WriteString("}}")

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indenting document: %w", err)
	}
	return out.Bytes(), nil
}

func writeField(buf *bytes.Buffer, name string, value any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	key, err := json.Marshal(name)
	if err != nil {
		return err
	}
	buf.Write(key)
	buf.WriteByte(':')
	val, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	buf.Write(val)
	return nil
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptySkipped(s []SkippedFile) []SkippedFile {
	if s == nil {
		return []SkippedFile{}
	}
	return s
}
