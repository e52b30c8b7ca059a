package translit

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banglakey/internal/keymap"
)

func TestConvertScenarios(t *testing.T) {
	tbl := keymap.Default()

	cases := []struct {
		in   string
		want string
	}{
		{"ami", "আমি"},
		{"bangla", "বাংলা"},
		{"kSh", "ক্ষ"},
		{".t", "ৎ"},
		{"ka", "কা"},
		{"a", "আ"},
		{"k", "ক"},
		{"kha", "খা"},
		{"ko", "কঅ"},
		{"@", "@"},
		{"k@a", "ক@আ"},
		{"aya", "অ্যা"},
		{"kaya", "কঅ্যা"},
		{"1.5", "১।৫"},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ConvertString(tbl, tc.in))
		})
	}
}

func TestTokenizeMaximalMunch(t *testing.T) {
	tbl := keymap.Default()

	tokens := Tokenize(tbl, []rune("kSha"))
	require.Len(t, tokens, 2)
	assert.Equal(t, "kSh", tokens[0].Pattern)
	assert.Equal(t, 3, tokens[0].Width)
	assert.Equal(t, "a", tokens[1].Pattern)

	// "kh" wins over "k" followed by "h".
	tokens = Tokenize(tbl, []rune("kh"))
	require.Len(t, tokens, 1)
	assert.Equal(t, "kh", tokens[0].Pattern)

	tokens = Tokenize(tbl, []rune("bangla"))
	var patterns []string
	for _, tk := range tokens {
		patterns = append(patterns, tk.Pattern)
	}
	assert.Equal(t, []string{"b", "a", "ng", "l", "a"}, patterns)
}

func TestTokenizePassthrough(t *testing.T) {
	tbl := keymap.Default()

	tokens := Tokenize(tbl, []rune("x@"))
	require.Len(t, tokens, 2)
	for _, tk := range tokens {
		assert.True(t, tk.Passthrough)
		assert.Equal(t, 1, tk.Width)
	}
	assert.Equal(t, 'x', tokens[0].Literal)
	assert.Equal(t, "@", tokens[1].Text())
}

func TestNextTokenNearEnd(t *testing.T) {
	tbl := keymap.Default()
	buf := []rune("akS")

	tk := NextToken(tbl, buf, 1)
	assert.Equal(t, "k", tk.Pattern)
	tk = NextToken(tbl, buf, 2)
	assert.Equal(t, "S", tk.Pattern)
	assert.Equal(t, keymap.RoleConsonant, tk.Entry.Role)
}

func TestTokensCoverBuffer(t *testing.T) {
	tbl := keymap.Default()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		buf := randomBuffer(rng, 12)
		width := 0
		for _, tk := range Tokenize(tbl, buf) {
			assert.GreaterOrEqual(t, tk.Width, 1)
			assert.LessOrEqual(t, tk.Width, tbl.MaxPatternLen())
			width += tk.Width
		}
		assert.Equal(t, len(buf), width, string(buf))
	}
}

func TestResolveVowelContext(t *testing.T) {
	tbl := keymap.Default()

	// A vowel after a modifier keeps its full form.
	assert.Equal(t, "ংআ", ConvertString(tbl, "nga"))
	// A vowel after a vowel keeps its full form.
	assert.Equal(t, "আই", ConvertString(tbl, "ai"))
	// Only the first vowel after a consonant takes the sign.
	assert.Equal(t, "কাই", ConvertString(tbl, "kai"))
	// Conjuncts count as consonants.
	assert.Equal(t, "ক্ষি", ConvertString(tbl, "kShi"))
}

func TestConvertDeterministicAndIdempotent(t *testing.T) {
	tbl := keymap.Default()
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		buf := randomBuffer(rng, 10)
		once := Convert(tbl, buf)
		assert.Equal(t, once, Convert(tbl, buf))
		assert.Equal(t, once, ConvertString(tbl, once), string(buf))
	}
}

func TestConvertText(t *testing.T) {
	tbl := keymap.Default()

	assert.Equal(t, "আমি বাংলা", ConvertText(tbl, "ami bangla"))
	assert.Equal(t, "আমি\nবাংলা\t", ConvertText(tbl, "ami\nbangla\t"))
	assert.Equal(t, "কা, খা!", ConvertText(tbl, "ka, kha!"))
	assert.Equal(t, "মা@কা", ConvertText(tbl, "ma@ka"))
	assert.Equal(t, "", ConvertText(tbl, ""))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestConvertStream(t *testing.T) {
	tbl := keymap.Default()
	in := "ami bangla\nbhalo\n\nshesh"

	var out bytes.Buffer
	require.NoError(t, ConvertStream(tbl, strings.NewReader(in), &out))
	assert.Equal(t, ConvertText(tbl, in), out.String())

	// Longer than the bufio buffer, so the write error surfaces before Flush.
	long := strings.Repeat("ami bangla boli\n", 1000)
	err := ConvertStream(tbl, strings.NewReader(long), failingWriter{})
	assert.EqualError(t, err, "disk full")
}

func TestIsConvertible(t *testing.T) {
	for _, r := range "azAZ09.:$_" {
		assert.True(t, IsConvertible(r), string(r))
	}
	for _, r := range " @,-!\nক" {
		assert.False(t, IsConvertible(r), string(r))
	}
	assert.True(t, IsBoundary(' '))
	assert.True(t, IsBoundary('\n'))
	assert.False(t, IsBoundary('.'))
}

const alphabet = "abcdeghijklmnoprstuyDNRSTUYOI.:$_0123456789@wx"

func randomBuffer(rng *rand.Rand, maxLen int) []rune {
	n := rng.Intn(maxLen + 1)
	buf := make([]rune, n)
	for i := range buf {
		buf[i] = rune(alphabet[rng.Intn(len(alphabet))])
	}
	return buf
}
