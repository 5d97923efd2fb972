/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

// Load reads a manifest file and decodes every YAML document in it.
// Empty documents and comment-only documents are skipped.
func Load(path string) ([]*unstructured.Unstructured, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	objs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	return objs, nil
}

// LoadDir loads every .yaml/.yml file in the directory, sorted by file name
// so numeric prefixes control apply order.
func LoadDir(dir string) ([]*unstructured.Unstructured, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var objs []*unstructured.Unstructured
	for _, f := range files {
		loaded, err := Load(f)
		if err != nil {
			return nil, err
		}
		objs = append(objs, loaded...)
	}
	return objs, nil
}

// Decode splits a possibly multi-document YAML stream and decodes each
// document into an unstructured object.
func Decode(data []byte) ([]*unstructured.Unstructured, error) {
	var objs []*unstructured.Unstructured

	for _, doc := range splitDocuments(string(data)) {
		var content map[string]interface{}
		if err := yaml.Unmarshal([]byte(doc), &content); err != nil {
			return nil, fmt.Errorf("invalid YAML document: %w", err)
		}
		if len(content) == 0 {
			continue
		}

		obj := &unstructured.Unstructured{Object: content}
		if obj.GetKind() == "" || obj.GetAPIVersion() == "" {
			return nil, fmt.Errorf("document missing kind or apiVersion: %q", firstLine(doc))
		}
		objs = append(objs, obj)
	}

	return objs, nil
}

// splitDocuments splits a YAML stream on document separators. A plain
// strings.Split on "---" would break on strings containing dashes, so the
// separator is only honored at the start of a line.
func splitDocuments(stream string) []string {
	var docs []string
	var current strings.Builder

	for _, line := range strings.SplitAfter(stream, "\n") {
		if strings.TrimRight(line, "\r\n") == "---" {
			docs = append(docs, current.String())
			current.Reset()
			continue
		}
		current.WriteString(line)
	}
	docs = append(docs, current.String())

	var out []string
	for _, d := range docs {
		if strings.TrimSpace(d) != "" {
			out = append(out, d)
		}
	}
	return out
}

func firstLine(doc string) string {
	for _, line := range strings.Split(doc, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			return trimmed
		}
	}
	return ""
}
