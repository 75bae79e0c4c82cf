package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tiktoken encoding used for prompt budgeting.
const DefaultEncoding = "o200k_base"

// TokenCounter returns the number of tokens text occupies in a prompt.
type TokenCounter func(text string) int

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// CountTokens counts text with the default encoding. When the encoding
// cannot be loaded it falls back to ApproxTokens.
func CountTokens(text string) int {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(DefaultEncoding)
	})
	if encErr != nil || enc == nil {
		return ApproxTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// ApproxTokens estimates four bytes per token.
func ApproxTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// TrimLines keeps the leading lines whose combined token count fits in
// budget. A budget <= 0 keeps everything.
func TrimLines(lines []string, budget int, count TokenCounter) (kept []string, dropped int) {
	if budget <= 0 {
		return lines, 0
	}
	if count == nil {
		count = CountTokens
	}
	used := 0
	for i, l := range lines {
		n := count(l) + 1
		if used+n > budget {
			return lines[:i], len(lines) - i
		}
		used += n
	}
	return lines, 0
}
