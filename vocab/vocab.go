// Package vocab builds the bidirectional token<->code index for the IMDB corpus.
//
// The raw word index shipped with the corpus maps words to codes starting at 1
// and reserves nothing. The corpus encoding, however, reserves the first four
// codes for sentinel tokens, so every raw code is shifted up by 3 at build
// time: a review sequence stored on disk as [1, 14, 22, ...] means
// [<START>, "the"+shift, ...].
package vocab

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Sentinel tokens always present in a built Index, at codes 0 to 3.
const (
	TokenPad    = "<PAD>"
	TokenStart  = "<START>"
	TokenUnk    = "<UNK>"
	TokenUnused = "<UNUSED>"
)

// Codes of the sentinel tokens.
const (
	PadCode = iota
	StartCode
	UnkCode
	UnusedCode

	numSentinels
)

// codeShift is added to every raw code to make room for the sentinels.
const codeShift = numSentinels - 1

// Placeholder substituted by Index.Decode for codes not present in the index.
// Out-of-vocabulary codes are expected in real review sequences and are never
// an error.
const Placeholder = "?"

// DuplicateCodeError is returned by New when two distinct tokens of the raw
// word index would map to the same shifted code, or when a raw code is
// negative. There is no sensible partial vocabulary, so construction aborts.
type DuplicateCodeError struct {
	Token string
	Code  int
}

func (e *DuplicateCodeError) Error() string {
	if e.Code < 0 {
		return "vocab: token " + strconv.Quote(e.Token) + " has negative code " + strconv.Itoa(e.Code)
	}
	return "vocab: token " + strconv.Quote(e.Token) + " collides on code " + strconv.Itoa(e.Code)
}

// UnknownTokenError is returned by Index.EncodeToken for tokens not present in
// the index.
type UnknownTokenError struct {
	Token string
}

func (e *UnknownTokenError) Error() string {
	return "vocab: unknown token " + strconv.Quote(e.Token)
}

// Index is an immutable bijective mapping between tokens and non-negative
// integer codes, with the four sentinel tokens guaranteed at codes 0 to 3.
//
// It is built once with New and safe for concurrent readers afterwards.
type Index struct {
	tokenToCode map[string]int
	codeToToken map[int]string
}

// New builds an Index from the raw (unshifted) word index.
//
// Every raw code is shifted up by 3 and the four sentinel entries are added.
// It returns a *DuplicateCodeError if the raw mapping is malformed: a negative
// code, or two tokens sharing a code.
func New(raw map[string]int) (*Index, error) {
	idx := &Index{
		tokenToCode: make(map[string]int, len(raw)+numSentinels),
		codeToToken: make(map[int]string, len(raw)+numSentinels),
	}
	for _, s := range []struct {
		token string
		code  int
	}{
		{TokenPad, PadCode},
		{TokenStart, StartCode},
		{TokenUnk, UnkCode},
		{TokenUnused, UnusedCode},
	} {
		idx.tokenToCode[s.token] = s.code
		idx.codeToToken[s.code] = s.token
	}
	for token, rawCode := range raw {
		if rawCode < 0 {
			return nil, errors.WithStack(&DuplicateCodeError{Token: token, Code: rawCode})
		}
		code := rawCode + codeShift
		if previous, found := idx.codeToToken[code]; found && previous != token {
			return nil, errors.WithStack(&DuplicateCodeError{Token: token, Code: code})
		}
		// A raw token spelled like a sentinel would overwrite its reserved entry.
		if _, found := idx.tokenToCode[token]; found {
			return nil, errors.WithStack(&DuplicateCodeError{Token: token, Code: code})
		}
		idx.tokenToCode[token] = code
		idx.codeToToken[code] = token
	}
	return idx, nil
}

// Len returns the number of entries in the index, sentinels included.
func (idx *Index) Len() int {
	return len(idx.tokenToCode)
}

// Token returns the token for the given code, and whether the code is present
// in the index.
func (idx *Index) Token(code int) (string, bool) {
	token, found := idx.codeToToken[code]
	return token, found
}

// EncodeToken returns the code for the given token, or an *UnknownTokenError.
func (idx *Index) EncodeToken(token string) (int, error) {
	code, found := idx.tokenToCode[token]
	if !found {
		return 0, errors.WithStack(&UnknownTokenError{Token: token})
	}
	return code, nil
}

// Decode returns the human-readable text for a sequence of codes, tokens
// joined by single spaces.
//
// Codes not present in the index decode to Placeholder ("?"): out-of-vocabulary
// codes are a normal occurrence in review sequences, so Decode never fails.
// The result is meant for diagnostics only, never to be fed back into training.
func (idx *Index) Decode(codes []int) string {
	var sb strings.Builder
	for ii, code := range codes {
		if ii > 0 {
			sb.WriteByte(' ')
		}
		token, found := idx.codeToToken[code]
		if !found {
			token = Placeholder
		}
		sb.WriteString(token)
	}
	return sb.String()
}

// Encode converts raw review text to a sequence of codes, the same convention
// used by the corpus files: a leading <START> code, then one code per
// lowercased whitespace-separated word, with words not in the index mapping to
// the <UNK> code.
func (idx *Index) Encode(text string) []int {
	words := strings.Fields(strings.ToLower(text))
	codes := make([]int, 0, len(words)+1)
	codes = append(codes, StartCode)
	for _, word := range words {
		code, found := idx.tokenToCode[word]
		if !found {
			code = UnkCode
		}
		codes = append(codes, code)
	}
	return codes
}
