package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// LoadError reports a document that could not be read or decoded.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load API description %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load decodes a JSON or YAML document. name identifies the document in
// errors and endpoint metadata.
func Load(name string, data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &LoadError{Source: name, Err: errors.New("document is empty")}
	}

	if trimmed[0] != '{' {
		converted, err := yamlToJSON(trimmed)
		if err != nil {
			return nil, &LoadError{Source: name, Err: err}
		}
		trimmed = converted
	}

	if !gjson.ValidBytes(trimmed) {
		return nil, &LoadError{Source: name, Err: errors.New("document is not valid JSON")}
	}
	if !gjson.GetBytes(trimmed, "paths").IsObject() {
		return nil, &LoadError{Source: name, Err: errors.New("document has no paths")}
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, &LoadError{Source: name, Err: errors.Wrap(err, "decode")}
	}
	doc.Name = name
	return &doc, nil
}

// LoadFile reads and decodes one document. The document name is the file's
// base name without extension.
func LoadFile(path string) (*Document, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return Load(name, data)
}

// LoadFiles loads every path, returning the documents that loaded and one
// error per document that did not.
func LoadFiles(paths []string) ([]*Document, []error) {
	var docs []*Document
	var errs []error
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}

// yamlToJSON re-encodes a YAML document as JSON, keeping mapping key order.
func yamlToJSON(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	var buf bytes.Buffer
	if err := writeYAMLNode(&buf, &root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeYAMLNode(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLNode(buf, n.Content[0])

	case yaml.AliasNode:
		return writeYAMLNode(buf, n.Alias)

	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return errors.Wrap(err, "encode key")
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, child := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLNode(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		var v any
		if n.Tag == "!!timestamp" {
			v = n.Value
		} else if err := n.Decode(&v); err != nil {
			return errors.Wrapf(err, "decode scalar at line %d", n.Line)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "encode scalar at line %d", n.Line)
		}
		buf.Write(out)
		return nil
	}
	return errors.Newf("unsupported yaml node kind %d", n.Kind)
}
