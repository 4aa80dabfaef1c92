package local

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verifactura/invoice-extractor/internal/common"
)

// defaultChatTemplate is applied when the model files carry no template of
// their own, and for symbolic model ids that have no local files at all.
const defaultChatTemplate = "<|system|>\n{system}\n<|user|>\n{user}\n<|assistant|>\n"

// TokenizerInfo describes how the prompt for a local model gets built.
type TokenizerInfo struct {
	// Origin names the file the tokenizer was resolved from, or "model-id"
	// for symbolic sources without local files.
	Origin       string
	ChatTemplate string
	VocabSize    int
}

// ResolveTokenizer loads tokenizer metadata for a model source. For a
// local directory it walks an ordered chain of loaders and returns the
// first that succeeds; when every loader fails the error carries each
// stage's reason so operators can see the whole chain, not just the last
// link.
func ResolveTokenizer(source string) (*TokenizerInfo, error) {
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		// Symbolic id, the serving endpoint owns the real tokenizer.
		return &TokenizerInfo{Origin: "model-id", ChatTemplate: defaultChatTemplate}, nil
	}

	type stage struct {
		name string
		load func(dir string) (*TokenizerInfo, error)
	}
	stages := []stage{
		{"tokenizer.json", loadFastTokenizer},
		{"tokenizer_config.json", loadConfigTemplate},
		{"vocab", loadRawVocab},
	}

	var failures []string
	for _, s := range stages {
		tk, err := s.load(source)
		if err == nil {
			return tk, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", s.name, err))
	}
	return nil, common.Errorf(common.KindTokenizerLoadFailed,
		"no usable tokenizer under %s (%s)", source, strings.Join(failures, "; "))
}

// loadFastTokenizer reads a HuggingFace-style tokenizer.json. The chat
// template lives in tokenizer_config.json next to it when present.
func loadFastTokenizer(dir string) (*TokenizerInfo, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "tokenizer.json"))
	if err != nil {
		return nil, err
	}
	var doc struct {
		Model struct {
			Vocab map[string]any `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(doc.Model.Vocab) == 0 {
		return nil, fmt.Errorf("no vocabulary in model section")
	}
	tk := &TokenizerInfo{
		Origin:       "tokenizer.json",
		ChatTemplate: defaultChatTemplate,
		VocabSize:    len(doc.Model.Vocab),
	}
	if tmpl, err := readChatTemplate(dir); err == nil && tmpl != "" {
		tk.ChatTemplate = tmpl
	}
	return tk, nil
}

// loadConfigTemplate accepts a tokenizer_config.json that at least carries
// a chat template, even when the fast tokenizer file is absent or broken.
func loadConfigTemplate(dir string) (*TokenizerInfo, error) {
	tmpl, err := readChatTemplate(dir)
	if err != nil {
		return nil, err
	}
	if tmpl == "" {
		return nil, fmt.Errorf("no chat_template entry")
	}
	return &TokenizerInfo{Origin: "tokenizer_config.json", ChatTemplate: tmpl}, nil
}

// loadRawVocab is the last resort: a bare vocab.json map or vocab.txt
// word list with the default template.
func loadRawVocab(dir string) (*TokenizerInfo, error) {
	if raw, err := os.ReadFile(filepath.Join(dir, "vocab.json")); err == nil {
		var vocab map[string]any
		if err := json.Unmarshal(raw, &vocab); err != nil {
			return nil, fmt.Errorf("parse vocab.json: %w", err)
		}
		if len(vocab) == 0 {
			return nil, fmt.Errorf("vocab.json is empty")
		}
		return &TokenizerInfo{Origin: "vocab.json", ChatTemplate: defaultChatTemplate, VocabSize: len(vocab)}, nil
	}
	raw, err := os.ReadFile(filepath.Join(dir, "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("neither vocab.json nor vocab.txt readable")
	}
	n := 0
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("vocab.txt is empty")
	}
	return &TokenizerInfo{Origin: "vocab.txt", ChatTemplate: defaultChatTemplate, VocabSize: n}, nil
}

func readChatTemplate(dir string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "tokenizer_config.json"))
	if err != nil {
		return "", err
	}
	var cfg struct {
		ChatTemplate string `json:"chat_template"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return "", fmt.Errorf("parse tokenizer_config.json: %w", err)
	}
	return cfg.ChatTemplate, nil
}
