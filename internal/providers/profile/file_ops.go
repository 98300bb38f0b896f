package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/alexisbeaulieu97/devsync/internal/config"
)

const defaultFileMode os.FileMode = 0o644

// fileState captures a profile before it is modified.
type fileState struct {
	Path            string
	Exists          bool
	Permissions     os.FileMode
	Lines           []string
	TrailingNewline bool
}

// readFileState loads the profile at path, following symlinks so that a
// dotfile managed elsewhere is edited in place rather than replaced.
func readFileState(path, enc string) (*fileState, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	state := &fileState{Path: expanded}

	resolved, err := filepath.EvalSymlinks(expanded)
	if err == nil {
		state.Path = resolved
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	info, err := os.Stat(state.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			state.Permissions = defaultFileMode
			state.Lines = []string{}
			return state, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", state.Path)
	}

	state.Exists = true
	state.Permissions = info.Mode().Perm()

	data, err := os.ReadFile(state.Path)
	if err != nil {
		return nil, err
	}

	decoded, err := decodeContent(data, enc)
	if err != nil {
		return nil, err
	}

	state.Lines, state.TrailingNewline = splitLines(decoded)
	return state, nil
}

func (s *fileState) contains(line string) bool {
	for _, existing := range s.Lines {
		if strings.TrimRight(existing, " \t\r") == line {
			return true
		}
	}
	return false
}

func splitLines(content string) ([]string, bool) {
	if content == "" {
		return []string{}, false
	}
	trailing := strings.HasSuffix(content, "\n")
	trimmed := strings.TrimSuffix(content, "\n")
	if trimmed == "" {
		return []string{""}, trailing
	}
	return strings.Split(trimmed, "\n"), trailing
}

func joinLines(lines []string, trailing bool) string {
	if len(lines) == 0 {
		return ""
	}
	joined := strings.Join(lines, "\n")
	if trailing {
		return joined + "\n"
	}
	return joined
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty profile path")
	}
	path = config.ExpandHome(path)
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".devsync-profile-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func decodeContent(data []byte, name string) (string, error) {
	enc := encodingByName(name)
	if enc == nil {
		return string(data), nil
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode profile as %s: %w", name, err)
	}
	return string(decoded), nil
}

func encodeContent(content, name string) ([]byte, error) {
	enc := encodingByName(name)
	if enc == nil {
		return []byte(content), nil
	}
	encoded, _, err := transform.String(enc.NewEncoder(), content)
	if err != nil {
		return nil, fmt.Errorf("encode profile as %s: %w", name, err)
	}
	return []byte(encoded), nil
}

// encodingByName maps a settings.profile_encoding value to a codec. nil means
// UTF-8, which needs no transformation.
func encodingByName(name string) encoding.Encoding {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1
	case "windows-1252":
		return charmap.Windows1252
	case "utf-16", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	default:
		return nil
	}
}
