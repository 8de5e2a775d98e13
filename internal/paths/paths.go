package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// SplitList flattens input entries, splitting any entry on ';' and dropping blanks.
func SplitList(entries []string) []string {
	var out []string
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ";") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Resolve makes p absolute relative to base. URLs and absolute paths are returned as is.
func Resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(filepath.Join(base, p))
	if err != nil {
		return filepath.Join(base, p)
	}
	return abs
}

// ResolveAll applies Resolve to every entry.
func ResolveAll(base string, ps []string) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, Resolve(base, p))
	}
	return out
}

// Same reports whether a and b name the same file. Files that do not exist yet
// are compared by cleaned absolute path.
func Same(a, b string) bool {
	if ai, err := os.Stat(a); err == nil {
		if bi, err := os.Stat(b); err == nil {
			return os.SameFile(ai, bi)
		}
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// FindBase locates the directory relative inputs resolve against: start itself,
// or its parent when start is a file.
func FindBase(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	return abs, nil
}
