package vault

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---")

// inlineTagRe matches Obsidian-style body tags: a word starting with "#"
// at the beginning of a line or after whitespace. Heading markers ("# ...")
// and URL fragments do not match.
var inlineTagRe = regexp.MustCompile(`(?m)(?:^|\s)#([A-Za-z][0-9A-Za-z_/-]*)`)

// parseFrontmatter splits a document into declared frontmatter properties
// and the remaining body. A document without a frontmatter block, or with a
// malformed one, yields no declared properties; the body is kept either way.
func parseFrontmatter(raw []byte) (map[string]any, []byte) {
	rest, ok := cutDelimLine(raw)
	if !ok {
		return nil, raw
	}

	// The block ends at the next delimiter standing alone on its line.
	end := -1
	offset := 0
	for {
		idx := bytes.Index(rest[offset:], frontmatterDelim)
		if idx < 0 {
			break
		}
		at := offset + idx
		if lineStart(rest, at) && lineEnd(rest, at+len(frontmatterDelim)) {
			end = at
			break
		}
		offset = at + len(frontmatterDelim)
	}
	if end < 0 {
		return nil, raw
	}

	var declared map[string]any
	if err := yaml.Unmarshal(rest[:end], &declared); err != nil {
		return nil, raw
	}

	body := rest[end+len(frontmatterDelim):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return declared, body
}

// cutDelimLine strips a leading "---" line, tolerating a UTF-8 BOM and CRLF.
func cutDelimLine(raw []byte) ([]byte, bool) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(raw, frontmatterDelim) {
		return nil, false
	}
	rest := raw[len(frontmatterDelim):]
	switch {
	case bytes.HasPrefix(rest, []byte("\r\n")):
		return rest[2:], true
	case bytes.HasPrefix(rest, []byte("\n")):
		return rest[1:], true
	}
	return nil, false
}

func lineStart(b []byte, at int) bool {
	return at == 0 || b[at-1] == '\n'
}

func lineEnd(b []byte, at int) bool {
	if at >= len(b) {
		return true
	}
	return b[at] == '\n' || (b[at] == '\r' && at+1 < len(b) && b[at+1] == '\n')
}

// collectTags merges the frontmatter "tags" key (string or sequence) with
// inline body tags, deduplicated in first-seen order. A leading "#" on a
// declared tag is dropped.
func collectTags(declared map[string]any, body []byte) []string {
	var tags []string
	seen := make(map[string]struct{})

	add := func(tag string) {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}

	switch v := declared["tags"].(type) {
	case string:
		// A single scalar may itself hold a comma-separated list.
		for _, part := range strings.Split(v, ",") {
			add(part)
		}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				add(s)
			}
		}
	}

	for _, m := range inlineTagRe.FindAllSubmatch(body, -1) {
		add(string(m[1]))
	}

	return tags
}
