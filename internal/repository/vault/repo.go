// Package vault reads Markdown documents from a vault directory tree and
// turns YAML frontmatter plus file metadata into property bags.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// Repo implements the document repository over a vault directory.
type Repo struct {
	root string
}

// New creates a vault repository rooted at dir.
func New(root string) *Repo {
	return &Repo{root: filepath.Clean(root)}
}

// Root returns the vault root directory.
func (r *Repo) Root() string { return r.root }

// List resolves a source specifier into vault-relative document paths.
// "all", "every" and "*" select every document; a leading "#" selects by
// tag (case-insensitive exact or hierarchical-prefix match); anything else
// is a folder collected recursively. A missing folder yields an empty
// list, not an error.
func (r *Repo) List(ctx context.Context, source string) ([]string, error) {
	source = strings.TrimSpace(source)

	switch {
	case isAllToken(source):
		return r.walk(ctx, r.root)
	case strings.HasPrefix(source, "#"):
		return r.listByTag(ctx, strings.TrimPrefix(source, "#"))
	default:
		return r.listFolder(ctx, source)
	}
}

// Load reads one document and builds its property bag. An unreadable file
// wraps domain.ErrUnavailable so callers can skip the document.
func (r *Repo) Load(ctx context.Context, path string) (props.Bag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, ok := r.resolve(path)
	if !ok {
		return nil, fmt.Errorf("load %s: outside vault: %w", path, domain.ErrUnavailable)
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", path, domain.ErrUnavailable, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w: %w", path, domain.ErrUnavailable, err)
	}

	declared, body := parseFrontmatter(raw)

	meta := props.Meta{
		Name: strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		Path: filepath.ToSlash(path),
		// Creation time is not portable; modification time stands in.
		CTime: info.ModTime(),
		MTime: info.ModTime(),
		Size:  info.Size(),
		Tags:  collectTags(declared, body),
	}

	return props.New(declared, meta), nil
}

// Fingerprint identifies the current content of a document cheaply: the
// relative path plus modification time and size. Two equal fingerprints mean
// the parsed bag would be equal too.
func (r *Repo) Fingerprint(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	abs, ok := r.resolve(path)
	if !ok {
		return "", fmt.Errorf("fingerprint %s: outside vault: %w", path, domain.ErrUnavailable)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w: %w", path, domain.ErrUnavailable, err)
	}
	return fmt.Sprintf("%s|%d|%d", filepath.ToSlash(path), info.ModTime().UnixNano(), info.Size()), nil
}

// Check reports whether the vault root is a readable directory.
func (r *Repo) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(r.root)
	if err != nil {
		return fmt.Errorf("vault root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root %s is not a directory", r.root)
	}
	return nil
}

// listFolder collects documents under a vault subdirectory.
func (r *Repo) listFolder(ctx context.Context, folder string) ([]string, error) {
	dir, ok := r.resolve(folder)
	if !ok {
		return nil, nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	return r.walk(ctx, dir)
}

// listByTag parses every document and keeps those carrying a matching tag.
func (r *Repo) listByTag(ctx context.Context, query string) ([]string, error) {
	all, err := r.walk(ctx, r.root)
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, path := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bag, err := r.Load(ctx, path)
		if err != nil {
			continue // unavailable documents are skipped, not fatal
		}
		for _, tag := range bag.Tags() {
			if tagMatches(tag, query) {
				matched = append(matched, path)
				break
			}
		}
	}
	return matched, nil
}

// walk returns vault-relative slash paths of every document under dir, in
// lexical order.
func (r *Repo) walk(ctx context.Context, dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			if hidden(d.Name()) && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return paths, nil
}

// resolve joins a vault-relative path against the root and rejects paths
// escaping it.
func (r *Repo) resolve(rel string) (string, bool) {
	abs := filepath.Join(r.root, filepath.FromSlash(rel))
	back, err := filepath.Rel(r.root, abs)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}

func isAllToken(source string) bool {
	switch strings.ToLower(source) {
	case "all", "every", "*":
		return true
	}
	return false
}

// tagMatches reports whether tag equals the query or sits beneath it in the
// tag hierarchy, case-insensitively.
func tagMatches(tag, query string) bool {
	tag = strings.ToLower(tag)
	query = strings.ToLower(query)
	return tag == query || strings.HasPrefix(tag, query+"/")
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
