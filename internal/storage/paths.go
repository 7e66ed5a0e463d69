package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
)

// StoreRoot is the marker every persisted storage path starts with.
// Rows in the database never carry raw filesystem paths.
const StoreRoot = "/uploads"

var ErrOutsideRoot = errors.New("path resolves outside the blob root")

// uuidSegment matches a project identifier embedded in a path.
var uuidSegment = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Translator converts between store paths (persisted in asset rows) and
// absolute filesystem paths under the configured blob root. Both directions
// are pure string manipulation; nothing here touches the disk.
type Translator struct {
	root   string
	logger *slog.Logger
}

func NewTranslator(root string, logger *slog.Logger) (*Translator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{root: abs, logger: logger}, nil
}

// Root returns the absolute blob root the translator is anchored to.
func (t *Translator) Root() string { return t.root }

// FilesystemPath resolves a store path to an absolute path under the blob
// root. Absolute inputs already inside the root are returned unchanged.
// Traversal that would escape the root is rejected.
func (t *Translator) FilesystemPath(storePath string) (string, error) {
	p := stripScheme(storePath)

	if filepath.IsAbs(p) && !strings.HasPrefix(p, StoreRoot+"/") && p != StoreRoot {
		clean := filepath.Clean(p)
		if t.underRoot(clean) {
			return clean, nil
		}
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, storePath)
	}

	rel := strings.TrimPrefix(p, StoreRoot)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return t.root, nil
	}

	joined := filepath.Join(t.root, filepath.FromSlash(rel))
	if !t.underRoot(joined) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, storePath)
	}
	return joined, nil
}

// StorePath converts an absolute filesystem path into the store-relative
// form persisted in asset rows. A project UUID segment in the path wins;
// otherwise the path is matched against the root, and as a last resort the
// bare basename is used (which indicates a path-hygiene problem and is
// logged as such).
func (t *Translator) StorePath(fsPath string) string {
	clean := filepath.ToSlash(filepath.Clean(fsPath))

	segments := strings.Split(clean, "/")
	for i, seg := range segments {
		if uuidSegment.MatchString(seg) && i < len(segments)-1 {
			rest := strings.Join(segments[i+1:], "/")
			return StoreRoot + "/" + seg + "/" + rest
		}
	}

	if rel, ok := t.relativeToRoot(clean); ok {
		return StoreRoot + "/" + rel
	}

	if rel, ok := t.suffixMatch(segments); ok {
		return StoreRoot + "/" + rel
	}

	t.logger.Warn("store path fallback to basename, check blob root configuration",
		"path", fsPath, "root", t.root)
	return StoreRoot + "/" + segments[len(segments)-1]
}

func (t *Translator) underRoot(p string) bool {
	rel, err := filepath.Rel(t.root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (t *Translator) relativeToRoot(clean string) (string, bool) {
	rootSlash := filepath.ToSlash(t.root)
	if strings.HasPrefix(clean, rootSlash+"/") {
		return strings.TrimPrefix(clean, rootSlash+"/"), true
	}
	return "", false
}

// suffixMatch finds the longest run of trailing root components that also
// appear in the candidate path and treats everything after the match as
// root-relative. Used when the stored path was produced under a differently
// mounted root (container vs host).
func (t *Translator) suffixMatch(segments []string) (string, bool) {
	rootSegs := strings.Split(filepath.ToSlash(t.root), "/")
	for n := len(rootSegs); n >= 1; n-- {
		tail := rootSegs[len(rootSegs)-n:]
		for i := 0; i+len(tail) < len(segments); i++ {
			if equalSegments(segments[i:i+len(tail)], tail) {
				rest := segments[i+len(tail):]
				if len(rest) > 0 {
					return strings.Join(rest, "/"), true
				}
			}
		}
	}
	return "", false
}

func equalSegments(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// stripScheme removes a scheme://host prefix from legacy storage URLs,
// keeping only the path part.
func stripScheme(p string) string {
	i := strings.Index(p, "://")
	if i < 0 {
		return p
	}
	rest := p[i+3:]
	j := strings.Index(rest, "/")
	if j < 0 {
		return "/"
	}
	return rest[j:]
}
