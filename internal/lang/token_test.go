package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:  "simple comparison",
			input: "status = \"active\"",
			expected: []TokenType{
				TokenIdentifier, TokenEq, TokenString, TokenEOF,
			},
		},
		{
			name:  "and/or/not",
			input: "a = 1 and not b = 2 or c = 3",
			expected: []TokenType{
				TokenIdentifier, TokenEq, TokenNumber,
				TokenAnd, TokenNot, TokenIdentifier, TokenEq, TokenNumber,
				TokenOr, TokenIdentifier, TokenEq, TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "literal set",
			input: "{1, 2, 3}",
			expected: []TokenType{
				TokenLBrace, TokenNumber, TokenComma, TokenNumber, TokenComma, TokenNumber, TokenRBrace, TokenEOF,
			},
		},
		{
			name:  "regex literal with flags",
			input: "name matches /^foo/i",
			expected: []TokenType{
				TokenIdentifier, TokenMatches, TokenRegex, TokenEOF,
			},
		},
		{
			name:  "dotted identifier",
			input: "request.headers.content_type = \"json\"",
			expected: []TokenType{
				TokenIdentifier, TokenEq, TokenString, TokenEOF,
			},
		},
		{
			name:  "bare constants",
			input: "a is null or b is not undefined",
			expected: []TokenType{
				TokenIdentifier, TokenIs, TokenNull,
				TokenOr, TokenIdentifier, TokenIs, TokenNot, TokenUndefined,
				TokenEOF,
			},
		},
		{
			name:  "negative number",
			input: "x < -5",
			expected: []TokenType{
				TokenIdentifier, TokenLt, TokenNumber, TokenEOF,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			require.Len(t, tokens, len(tt.expected))
			for i, exp := range tt.expected {
				assert.Equalf(t, exp, tokens[i].Type, "token %d (value %q)", i, tokens[i].Value)
			}
		})
	}
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single quotes", input: "'hello'", expected: "hello"},
		{name: "double quotes", input: "\"hello\"", expected: "hello"},
		{name: "escaped quote", input: `'it\'s ok'`, expected: "it's ok"},
		{name: "escaped newline", input: `'a\nb'`, expected: "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			require.Equal(t, TokenString, tokens[0].Type)
			assert.Equal(t, tt.expected, tokens[0].Value)
		})
	}
}

func TestTokenizeRegexFlagsAndPattern(t *testing.T) {
	tokens, err := Tokenize(`/^a.b$/ims`)
	require.NoError(t, err)
	require.Equal(t, TokenRegex, tokens[0].Type)
	assert.Equal(t, "^a.b$\x00ims", tokens[0].Value)
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := Tokenize("'unterminated")
	require.Error(t, err)
}

func TestTokenizeUnterminatedRegex(t *testing.T) {
	_, err := Tokenize("/unterminated")
	require.Error(t, err)
}

func TestTokenizeUnexpectedCharacter(t *testing.T) {
	_, err := Tokenize("a = @")
	require.Error(t, err)
}

func TestTokenizeLineAndColumn(t *testing.T) {
	tokens, err := Tokenize("a = 1\nb = 2")
	require.NoError(t, err)
	// "b" is on line 2, column 0
	var found bool
	for _, tok := range tokens {
		if tok.Type == TokenIdentifier && tok.Value == "b" {
			assert.Equal(t, 2, tok.Line)
			assert.Equal(t, 0, tok.Col)
			found = true
		}
	}
	assert.True(t, found)
}
