package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  hello world \n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetTextWithDefault(t *testing.T) {
	tests := []struct {
		name, input, current, want, prompt string
	}{
		{name: "enter keeps current", input: "\n", current: "Ann", want: "Ann", prompt: "Name [Ann]\n> "},
		{name: "new value replaces", input: "Bo\n", current: "Ann", want: "Bo", prompt: "Name [Ann]\n> "},
		{name: "dash clears", input: "-\n", current: "Ann", want: "", prompt: "Name [Ann]\n> "},
		{name: "no current, no brackets", input: "Cy\n", current: "", want: "Cy", prompt: "Name\n> "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetTextWithDefault(rdr(tt.input), "Name", tt.current, &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.prompt, out.String())
		})
	}
}

func TestGetConfirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "maybe\n": false} {
		var out bytes.Buffer
		got, err := GetConfirm(rdr(input), "Sure?", &out)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Sure? (y/N)\n> ", out.String())
	}
}

func TestGetConfirmDefault(t *testing.T) {
	tests := []struct {
		input  string
		def    bool
		want   bool
		prompt string
	}{
		{"\n", true, true, "Fav? (Y/n)\n> "},
		{"\n", false, false, "Fav? (y/N)\n> "},
		{"n\n", true, false, "Fav? (Y/n)\n> "},
		{"yes\n", false, true, "Fav? (y/N)\n> "},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := GetConfirmDefault(rdr(tt.input), "Fav?", tt.def, &out)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q default %v", tt.input, tt.def)
		assert.Equal(t, tt.prompt, out.String())
	}
}

func TestGetMultilineWithDefault(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultilineWithDefault(rdr("\n"), "Notes", "old\ntext", &out)
	require.NoError(t, err)
	assert.Equal(t, "old\ntext", got, "empty answer keeps the current text")
	assert.Contains(t, out.String(), "Current notes:\nold\ntext\n")

	got, err = GetMultilineWithDefault(rdr("-\n\n"), "Notes", "old", &out)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = GetMultilineWithDefault(rdr("new\nlines\n\n"), "Notes", "old", &out)
	require.NoError(t, err)
	assert.Equal(t, "new\nlines", got)

	out.Reset()
	got, err = GetMultilineWithDefault(rdr("first\n\n"), "Notes", "", &out)
	require.NoError(t, err)
	assert.Equal(t, "first", got)
	assert.NotContains(t, out.String(), "Current")
}

func TestGetMultiline_DoubleEnter(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("a\nb\n\nrest\n"), "Enter text", &out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}

func TestGetMultiline_EOFAndCRLF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("a\r\nb"), "Enter text", &out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("secret1"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "secret1", string(pw))
	assert.Equal(t, "Enter password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPassword(&out)
	require.Error(t, err)
}
