package lexicon

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema is the on-disk override format. Any omitted list keeps its
// built-in default.
type fileSchema struct {
	Spam     []string `yaml:"spam"`
	Question []string `yaml:"question"`
	Greeting []string `yaml:"greeting"`
}

// LoadFile reads a YAML lexicon override file and merges it over the
// defaults. A missing path is not an error; the defaults are returned.
func LoadFile(path string, logger *slog.Logger) (*Lexicon, error) {
	lex := Defaults()
	if path == "" {
		return lex, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("lexicon file does not exist, using defaults", "path", path)
			return lex, nil
		}
		return nil, fmt.Errorf("read lexicon file %s: %w", path, err)
	}

	var f fileSchema
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon file %s: %w", path, err)
	}

	if len(f.Spam) > 0 {
		if lex.Spam, err = NewSet("spam", f.Spam); err != nil {
			return nil, err
		}
	}
	if len(f.Question) > 0 {
		if lex.Question, err = NewSet("question", f.Question); err != nil {
			return nil, err
		}
	}
	if len(f.Greeting) > 0 {
		if lex.Greeting, err = NewSet("greeting", f.Greeting); err != nil {
			return nil, err
		}
	}

	logger.Info("lexicon overrides loaded", "path", path,
		"spam", len(lex.Spam.Patterns()),
		"question", len(lex.Question.Patterns()),
		"greeting", len(lex.Greeting.Patterns()),
	)
	return lex, nil
}
