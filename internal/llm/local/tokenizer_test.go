package local

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verifactura/invoice-extractor/internal/common"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestResolveModelSource(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, dir, ResolveModelSource(dir, "llama3"))
	assert.Equal(t, "llama3", ResolveModelSource(filepath.Join(dir, "missing"), "llama3"))
	assert.Equal(t, "llama3", ResolveModelSource("", "llama3"))
	assert.Equal(t, DefaultModelSource, ResolveModelSource("", ""))
}

func TestResolveTokenizer_FastTokenizerWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tokenizer.json", `{"model":{"vocab":{"hola":0,"factura":1}}}`)
	writeFile(t, dir, "tokenizer_config.json", `{"chat_template":"{system}{user}"}`)
	writeFile(t, dir, "vocab.txt", "hola\nfactura\n")

	tk, err := ResolveTokenizer(dir)
	require.NoError(t, err)
	assert.Equal(t, "tokenizer.json", tk.Origin)
	assert.Equal(t, 2, tk.VocabSize)
	assert.Equal(t, "{system}{user}", tk.ChatTemplate)
}

func TestResolveTokenizer_FallsBackToConfigTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tokenizer.json", "not json at all")
	writeFile(t, dir, "tokenizer_config.json", `{"chat_template":"{system}{user}"}`)

	tk, err := ResolveTokenizer(dir)
	require.NoError(t, err)
	assert.Equal(t, "tokenizer_config.json", tk.Origin)
	assert.Equal(t, "{system}{user}", tk.ChatTemplate)
}

func TestResolveTokenizer_FallsBackToRawVocab(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vocab.json", `{"hola":0,"factura":1,"total":2}`)

	tk, err := ResolveTokenizer(dir)
	require.NoError(t, err)
	assert.Equal(t, "vocab.json", tk.Origin)
	assert.Equal(t, 3, tk.VocabSize)
	assert.Equal(t, defaultChatTemplate, tk.ChatTemplate)
}

func TestResolveTokenizer_VocabTxt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vocab.txt", "hola\nfactura\n\n")

	tk, err := ResolveTokenizer(dir)
	require.NoError(t, err)
	assert.Equal(t, "vocab.txt", tk.Origin)
	assert.Equal(t, 2, tk.VocabSize)
}

func TestResolveTokenizer_AllStagesFail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tokenizer.json", "{broken")
	writeFile(t, dir, "tokenizer_config.json", `{}`)

	_, err := ResolveTokenizer(dir)
	require.Error(t, err)
	assert.Equal(t, common.KindTokenizerLoadFailed, common.KindOf(err))

	// The error reports every stage, not just the last one.
	assert.Contains(t, err.Error(), "tokenizer.json")
	assert.Contains(t, err.Error(), "tokenizer_config.json")
	assert.Contains(t, err.Error(), "vocab")
}

func TestResolveTokenizer_SymbolicIDUsesDefaultTemplate(t *testing.T) {
	tk, err := ResolveTokenizer("llama3:8b")
	require.NoError(t, err)
	assert.Equal(t, "model-id", tk.Origin)
	assert.Equal(t, defaultChatTemplate, tk.ChatTemplate)
}
