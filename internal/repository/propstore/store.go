// Package propstore persists property updates into a document's YAML
// frontmatter while leaving everything else in the file untouched:
// unrelated keys, comments, key order and the body survive a write.
package propstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/document/patch"
)

// Store implements the property-store collaborator over a vault directory.
type Store struct {
	root string
}

// New creates a property store rooted at the vault directory.
func New(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Apply merges the patch into the document's frontmatter and writes the
// file back atomically. A document without a frontmatter block gets a new
// one. Failures wrap domain.ErrWriteFailed; a missing document wraps
// domain.ErrDocumentNotFound.
func (s *Store) Apply(ctx context.Context, path string, p *patch.Patch) error {
	if p.IsEmpty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	abs, ok := s.resolve(path)
	if !ok {
		return fmt.Errorf("apply %s: outside vault: %w", path, domain.ErrWriteFailed)
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("apply %s: %w", path, domain.ErrDocumentNotFound)
		}
		return fmt.Errorf("read %s: %w: %w", path, domain.ErrWriteFailed, err)
	}

	updated, err := merge(raw, p)
	if err != nil {
		return fmt.Errorf("merge %s: %w: %w", path, domain.ErrWriteFailed, err)
	}

	if err := writeAtomic(abs, updated); err != nil {
		return fmt.Errorf("write %s: %w: %w", path, domain.ErrWriteFailed, err)
	}
	return nil
}

// merge rewrites only the frontmatter block, re-emitting it through the
// yaml node tree so comments and key order are preserved.
func merge(raw []byte, p *patch.Patch) ([]byte, error) {
	block, body, found := splitFrontmatter(raw)
	if !found {
		body = raw
	}

	var doc yaml.Node
	if found && len(bytes.TrimSpace(block)) > 0 {
		if err := yaml.Unmarshal(block, &doc); err != nil {
			return nil, fmt.Errorf("frontmatter parse: %w", err)
		}
	}
	mapping, err := documentMapping(&doc)
	if err != nil {
		return nil, err
	}

	for _, path := range p.Paths() {
		value, _ := p.Value(path)
		if err := setPath(mapping, strings.Split(path, "."), value); err != nil {
			return nil, fmt.Errorf("set %s: %w", path, err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("frontmatter encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter encode: %w", err)
	}
	buf.WriteString("---\n")
	buf.Write(body)

	return buf.Bytes(), nil
}

// documentMapping returns the document's root mapping node, creating an
// empty one for blank or absent frontmatter.
func documentMapping(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind == 0 {
		mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		doc.Kind = yaml.DocumentNode
		doc.Content = []*yaml.Node{mapping}
		return mapping, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("unexpected frontmatter shape")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter is not a mapping")
	}
	return root, nil
}

// setPath updates one dotted path inside a mapping node, descending into
// nested mappings and creating them when absent. Existing keys keep their
// position and comments; new keys are appended.
func setPath(mapping *yaml.Node, segments []string, value any) error {
	key := segments[0]

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value != key {
			continue
		}
		if len(segments) == 1 {
			node, err := encodeValue(value, mapping.Content[i+1])
			if err != nil {
				return err
			}
			mapping.Content[i+1] = node
			return nil
		}
		child := mapping.Content[i+1]
		if child.Kind != yaml.MappingNode {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			mapping.Content[i+1] = child
		}
		return setPath(child, segments[1:], value)
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	if len(segments) == 1 {
		node, err := encodeValue(value, nil)
		if err != nil {
			return err
		}
		mapping.Content = append(mapping.Content, keyNode, node)
		return nil
	}
	child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	mapping.Content = append(mapping.Content, keyNode, child)
	return setPath(child, segments[1:], value)
}

// encodeValue builds a node for a scalar, bool or sequence value. Comments
// attached to the replaced node carry over; when the kinds match, so does
// the style, keeping quoted strings quoted and flow sequences flow.
func encodeValue(value any, prev *yaml.Node) (*yaml.Node, error) {
	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return nil, err
	}
	if prev != nil {
		node.HeadComment = prev.HeadComment
		node.LineComment = prev.LineComment
		node.FootComment = prev.FootComment
		if prev.Kind == node.Kind && prev.Tag == node.Tag {
			node.Style = prev.Style
		}
	}
	return node, nil
}

// splitFrontmatter slices raw into the YAML block between the delimiter
// lines and the body after the closing line.
func splitFrontmatter(raw []byte) (block, body []byte, found bool) {
	rest, ok := cutDelimLine(raw)
	if !ok {
		return nil, nil, false
	}

	offset := 0
	for {
		idx := bytes.Index(rest[offset:], delim)
		if idx < 0 {
			return nil, nil, false
		}
		at := offset + idx
		if lineStart(rest, at) && lineEnd(rest, at+len(delim)) {
			block = rest[:at]
			body = rest[at+len(delim):]
			if i := bytes.IndexByte(body, '\n'); i >= 0 {
				body = body[i+1:]
			} else {
				body = nil
			}
			return block, body, true
		}
		offset = at + len(delim)
	}
}

var delim = []byte("---")

func cutDelimLine(raw []byte) ([]byte, bool) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(raw, delim) {
		return nil, false
	}
	rest := raw[len(delim):]
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

func (s *Store) resolve(rel string) (string, bool) {
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	back, err := filepath.Rel(s.root, abs)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}

// writeAtomic writes through a temp file in the same directory and renames
// it over the original, keeping the original mode.
func writeAtomic(abs string, data []byte) error {
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".propstore-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(info.Mode()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, abs); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
