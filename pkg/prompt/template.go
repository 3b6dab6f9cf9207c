package prompt

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"text/template"
)

// Template is a text/template with a content digest. File-backed templates
// can be re-read with Reload.
type Template struct {
	name string
	path string

	mu     sync.RWMutex
	tmpl   *template.Template
	digest string
}

// LoadTemplate parses the template file at path.
func LoadTemplate(path string) (*Template, error) {
	if path == "" {
		return nil, fmt.Errorf("prompt template path is empty")
	}
	t := &Template{name: filepath.Base(path), path: path}
	if err := t.reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseTemplate builds an in-memory template from text.
func ParseTemplate(name, text string) (*Template, error) {
	t := &Template{name: name}
	if err := t.parse([]byte(text)); err != nil {
		return nil, err
	}
	return t, nil
}

// Render executes the template against data. Missing keys are errors.
func (t *Template) Render(data any) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute prompt template %q: %w", t.name, err)
	}
	return buf.String(), nil
}

// Reload re-reads a file-backed template. In-memory templates are left as is.
func (t *Template) Reload() error {
	if t.path == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reload()
}

// Digest is the hex sha256 of the template source.
func (t *Template) Digest() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.digest
}

// Name returns the template's file base name or given name.
func (t *Template) Name() string { return t.name }

func (t *Template) reload() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read prompt template %q: %w", t.path, err)
	}
	return t.parse(data)
}

func (t *Template) parse(data []byte) error {
	tmpl, err := template.New(t.name).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse prompt template %q: %w", t.name, err)
	}
	sum := sha256.Sum256(data)
	t.tmpl = tmpl
	t.digest = hex.EncodeToString(sum[:])
	return nil
}
