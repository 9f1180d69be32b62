package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"typeindex/internal/domain"
	"typeindex/internal/logging"
)

// FileCatalog reads semantic type definitions from YAML or JSON files. A file
// holds either a single definition, a list, or a document with a "types" list.
type FileCatalog struct {
	root   string
	walker *Walker
	logger *logging.Logger
}

func NewFileCatalog(root string, includes, excludes []string, logger *logging.Logger) *FileCatalog {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &FileCatalog{
		root:   root,
		walker: NewWalker(includes, excludes),
		logger: logger,
	}
}

// ListTypes reads every matching file. Definitions without a name are skipped;
// for duplicate names the first file in lexical order wins.
func (c *FileCatalog) ListTypes() ([]domain.SemanticType, error) {
	files, err := c.walker.Walk(c.root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk catalog %s: %w", c.root, err)
	}

	seen := make(map[string]string)
	var types []domain.SemanticType
	for _, path := range files {
		defs, err := decodeFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		for _, def := range defs {
			def.SemanticType = strings.TrimSpace(def.SemanticType)
			if def.SemanticType == "" {
				c.logger.Warn("skipping unnamed type definition in %s", path)
				continue
			}
			if first, dup := seen[def.SemanticType]; dup {
				c.logger.Warn("duplicate type %s in %s (first defined in %s)", def.SemanticType, path, first)
				continue
			}
			seen[def.SemanticType] = path
			types = append(types, def)
		}
	}
	return types, nil
}

type typesDocument struct {
	Types []domain.SemanticType `json:"types" yaml:"types"`
}

func decodeFile(path string) ([]domain.SemanticType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeJSON(data)
	}
	return decodeYAML(data)
}

func decodeYAML(data []byte) ([]domain.SemanticType, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]

	switch root.Kind {
	case yaml.SequenceNode:
		var list []domain.SemanticType
		err := root.Decode(&list)
		return list, err
	case yaml.MappingNode:
		var doc typesDocument
		if err := root.Decode(&doc); err != nil {
			return nil, err
		}
		if len(doc.Types) > 0 {
			return doc.Types, nil
		}
		var single domain.SemanticType
		if err := root.Decode(&single); err != nil {
			return nil, err
		}
		return []domain.SemanticType{single}, nil
	default:
		return nil, fmt.Errorf("unexpected YAML document kind %d", root.Kind)
	}
}

func decodeJSON(data []byte) ([]domain.SemanticType, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []domain.SemanticType
		err := json.Unmarshal(data, &list)
		return list, err
	}

	var doc typesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Types) > 0 {
		return doc.Types, nil
	}
	var single domain.SemanticType
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []domain.SemanticType{single}, nil
}
