package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/household/internal/encoding"
)

func readAll(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "naziv;iznos\nČišćenje stepeništa;1.250,00\nŽiro račun;300\n"
	assert.Equal(t, input, readAll(t, []byte(input)))
}

func TestNewUTF8Reader_Windows1250(t *testing.T) {
	// Š, š, Ž and ž share their code points across Windows-1250 and
	// Windows-1252, so the result does not depend on chardet's Latin guess.
	input := "naziv;iznos\nŠkolarina;12.000,00\nŽiro;3,00\nPoreska uprava Šabac;7.500,00\n"

	encoded, err := charmap.Windows1250.NewEncoder().Bytes([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, input, readAll(t, encoded))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	bom := []byte{0xEF, 0xBB, 0xBF}
	content := []byte("naziv;iznos\nStruja;4.500,00\n")

	assert.Equal(t, string(content), readAll(t, append(bom, content...)))
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	input := "naziv;iznos\nVoda;1.100,00\n"

	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, input, readAll(t, encoded))
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	assert.Equal(t, "", readAll(t, nil))
}
