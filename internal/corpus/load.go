package corpus

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type fileCorpus struct {
	Sentences []string `toml:"sentences" yaml:"sentences"`
}

// Load reads a corpus file. The format is chosen by extension: .toml and
// .yaml/.yml hold a top-level "sentences" list, anything else is read as one
// sentence per line with blank lines and '#' comments skipped.
func Load(path string) (*Corpus, error) {
	var (
		sentences []string
		err       error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		sentences, err = loadTOML(path)
	case ".yaml", ".yml":
		sentences, err = loadYAML(path)
	default:
		sentences, err = loadLines(path)
	}
	if err != nil {
		return nil, err
	}
	c, err := New(sentences)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func loadTOML(path string) ([]string, error) {
	var fc fileCorpus
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	return fc.Sentences, nil
}

func loadYAML(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc fileCorpus
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	return fc.Sentences, nil
}

func loadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only corpus file.
			_ = cerr
		}
	}()

	var sentences []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sentences = append(sentences, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sentences, nil
}
