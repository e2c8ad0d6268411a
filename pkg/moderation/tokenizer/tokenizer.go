package tokenizer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/trustlocal/scamguard/pkg/domain"
)

const (
	// PadID fills the tail of sequences shorter than max_len.
	PadID = 0
	// UnknownID is the sentinel for tokens outside the vocabulary.
	UnknownID = 1
	// firstTokenID is the id assigned to the most frequent token.
	firstTokenID = 2
)

// Tokenizer owns a frozen vocabulary and maps raw text to fixed-length
// integer sequences. Fit is called once per training run; after that the
// vocabulary never mutates, so Encode is safe for concurrent use.
type Tokenizer struct {
	maxLen    int
	vocabSize int
	vocab     map[string]int
}

func New(vocabSize, maxLen int) *Tokenizer {
	return &Tokenizer{
		maxLen:    maxLen,
		vocabSize: vocabSize,
	}
}

// FromVocab restores a tokenizer around a previously fitted vocabulary,
// as loaded from a model artifact.
func FromVocab(vocab map[string]int, maxLen int) *Tokenizer {
	return &Tokenizer{
		maxLen:    maxLen,
		vocabSize: len(vocab),
		vocab:     vocab,
	}
}

// Fit builds the vocabulary from the corpus: tokens ranked by descending
// frequency, ties broken by first-seen order, capped at the configured
// vocabulary size. The same corpus and cap always produce the same id
// assignment.
func (t *Tokenizer) Fit(corpus []string) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, text := range corpus {
		for _, token := range Split(text) {
			if _, seen := counts[token]; !seen {
				firstSeen[token] = order
				order++
			}
			counts[token]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return firstSeen[tokens[i]] < firstSeen[tokens[j]]
	})

	if len(tokens) > t.vocabSize {
		tokens = tokens[:t.vocabSize]
	}

	vocab := make(map[string]int, len(tokens))
	for i, token := range tokens {
		vocab[token] = firstTokenID + i
	}
	t.vocab = vocab
}

// Encode maps text through the frozen vocabulary to a sequence of
// exactly max_len ids: unknown tokens become UnknownID, the tail is
// truncated or padded with PadID.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	if len(t.vocab) == 0 {
		return nil, domain.ErrNotFitted
	}

	seq := make([]int, t.maxLen)
	for i, token := range Split(text) {
		if i >= t.maxLen {
			break
		}
		if id, ok := t.vocab[token]; ok {
			seq[i] = id
		} else {
			seq[i] = UnknownID
		}
	}
	return seq, nil
}

func (t *Tokenizer) Vocab() map[string]int {
	return t.vocab
}

func (t *Tokenizer) VocabSize() int {
	return len(t.vocab)
}

func (t *Tokenizer) MaxLen() int {
	return t.maxLen
}

// Split case-folds the text and cuts it on any rune that is neither a
// letter nor a digit.
func Split(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
