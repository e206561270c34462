package proxy

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileSource reads credentials from a local file. Two formats are accepted:
// JSON (an array of credentials, or an object with a "proxies" array) and the
// plain-text export format with one host:port:username:password per line.
type FileSource struct {
	path string
}

// NewFileSource builds a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

// Path returns the file being read.
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Name() string { return "file:" + s.path }

func (s *FileSource) Load(_ context.Context) ([]Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read proxy file: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var creds []Credential
		if err := json.Unmarshal(trimmed, &creds); err != nil {
			return nil, fmt.Errorf("parse proxy file: %w", err)
		}
		return creds, nil
	case '{':
		var doc snapshotDoc
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parse proxy file: %w", err)
		}
		return doc.Proxies, nil
	}
	return parseProxyLines(trimmed)
}

func parseProxyLines(data []byte) ([]Credential, error) {
	var out []Credential
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Split(text, ":")
		if len(parts) != 2 && len(parts) != 4 {
			return nil, fmt.Errorf("proxy file line %d: want host:port or host:port:user:pass", line)
		}
		port, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("proxy file line %d: bad port %q", line, parts[1])
		}
		c := Credential{Host: parts[0], Port: port}
		if len(parts) == 4 {
			c.Username, c.Password = parts[2], parts[3]
		}
		out = append(out, c)
	}
	return out, sc.Err()
}
