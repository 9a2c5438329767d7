package retriever

import "strings"

// FieldValues resolves a dotted path against a document. "id" and
// "content" address the document itself, "metadata.x.y" walks the metadata
// map. List values are flattened; a missing path yields nil.
func FieldValues(d Document, path string) []any {
	switch path {
	case "id":
		return []any{d.ID}
	case "content":
		return []any{d.Content}
	}

	rest, ok := strings.CutPrefix(path, "metadata.")
	if !ok {
		return nil
	}
	var cur any = d.Metadata
	for _, key := range strings.Split(rest, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[key]; !ok {
			return nil
		}
	}

	switch v := cur.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}
