package utilities

import (
	"bytes"
	"strings"
	"text/template"
)

// ChunkStrings splits sl into consecutive slices of at most size entries.
func ChunkStrings(sl []string, size int) [][]string {
	if len(sl) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(sl)
	}

	chunks := make([][]string, 0, (len(sl)+size-1)/size)
	for start := 0; start < len(sl); start += size {
		end := start + size
		if end > len(sl) {
			end = len(sl)
		}
		chunks = append(chunks, sl[start:end])
	}

	return chunks
}

// UniqueStrings drops blanks and duplicates, keeping first-seen order.
func UniqueStrings(sl []string) []string {
	seen := make(map[string]struct{}, len(sl))
	out := make([]string, 0, len(sl))

	for _, each := range sl {
		each = strings.TrimSpace(each)
		if each == "" {
			continue
		}
		if _, ok := seen[each]; ok {
			continue
		}
		seen[each] = struct{}{}
		out = append(out, each)
	}

	return out
}

func TemplateRendering(tmpl *template.Template, data any) (*bytes.Buffer, error) {
	body := new(bytes.Buffer)

	// Execute the template with the data and store the result in a buffer
	err := tmpl.Execute(body, data)
	if err != nil {
		return body, err
	}
	return body, err
}
