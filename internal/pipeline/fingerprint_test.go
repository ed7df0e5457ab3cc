package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashHexKnownValues(t *testing.T) {
	assert.Equal(t, "1505", hashHex(nil))
	assert.Equal(t, "2b5c4", hashHex([]byte("a")))
	assert.Equal(t, "a9cede7", hashHex([]byte("hello")))
}

type textThenOrder struct {
	Text  string `json:"text"`
	Order string `json:"order"`
}

type orderThenText struct {
	Order string `json:"order"`
	Text  string `json:"text"`
}

func TestFingerprintIgnoresFieldOrder(t *testing.T) {
	a, err := Fingerprint([]any{textThenOrder{Text: "夜空", Order: "1000"}}, Config{"lang": "en", "mode": "x"})
	require.NoError(t, err)
	b, err := Fingerprint([]any{orderThenText{Order: "1000", Text: "夜空"}}, Config{"mode": "x", "lang": "en"})
	require.NoError(t, err)
	c, err := Fingerprint([]any{map[string]string{"order": "1000", "text": "夜空"}}, Config{"lang": "en", "mode": "x"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestFingerprintSensitivity(t *testing.T) {
	base, err := Fingerprint([]any{map[string]string{"text": "a"}, map[string]string{"text": "b"}}, nil)
	require.NoError(t, err)

	swapped, _ := Fingerprint([]any{map[string]string{"text": "b"}, map[string]string{"text": "a"}}, nil)
	withCfg, _ := Fingerprint([]any{map[string]string{"text": "a"}, map[string]string{"text": "b"}}, Config{"targetLanguage": "ja"})
	emptyCfg, _ := Fingerprint([]any{map[string]string{"text": "a"}, map[string]string{"text": "b"}}, Config{})

	assert.NotEqual(t, base, swapped, "item order is significant")
	assert.NotEqual(t, base, withCfg)
	assert.Equal(t, base, emptyCfg, "empty config is omitted")
}

func TestFingerprintUnmarshalable(t *testing.T) {
	_, err := Fingerprint([]any{make(chan int)}, nil)
	assert.Error(t, err)
}

func TestNormalizeText(t *testing.T) {
	decomposed := "\u304b\u3099" // か + combining dakuten
	assert.Equal(t, "\u304c", NormalizeText("  "+decomposed+"\t"))
	assert.Equal(t, "abc", NormalizeText("abc"))
}
