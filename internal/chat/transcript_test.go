package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xiaot623/agentdesk/internal/domain"
)

func TestAppendTurnDoesNotMutate(t *testing.T) {
	var empty Transcript
	one := empty.AppendTurn("hello")

	assert.Empty(t, empty)
	assert.Equal(t, Transcript{
		{Type: domain.MessageTypeHuman, Message: "hello"},
		{Type: domain.MessageTypeAI, Message: ""},
	}, one)

	two := one.AppendTurn("again")
	assert.Len(t, one, 2)
	assert.Len(t, two, 4)
}

func TestReplaceLastAI(t *testing.T) {
	tr := Transcript{
		{Type: domain.MessageTypeHuman, Message: "q1"},
		{Type: domain.MessageTypeAI, Message: "a1"},
		{Type: domain.MessageTypeHuman, Message: "q2"},
		{Type: domain.MessageTypeAI, Message: ""},
	}

	next := tr.ReplaceLastAI("a2")
	assert.Equal(t, "a2", next[3].Message)
	assert.Equal(t, "a1", next[1].Message)
	assert.Equal(t, "", tr[3].Message, "original must stay untouched")

	humanOnly := Transcript{{Type: domain.MessageTypeHuman, Message: "q"}}
	assert.Equal(t, humanOnly, humanOnly.ReplaceLastAI("x"))
}

func TestLastAI(t *testing.T) {
	_, ok := Transcript{}.LastAI()
	assert.False(t, ok)

	text, ok := Transcript{}.AppendTurn("q").ReplaceLastAI("a").LastAI()
	assert.True(t, ok)
	assert.Equal(t, "a", text)
}

// Folding chunks the way Session does must equal their concatenation, with
// empty chunks mapped to newlines and the end marker dropped.
func TestChunkFolding(t *testing.T) {
	cases := []struct {
		chunks []string
		want   string
	}{
		{[]string{"Hi", " there", "[END]"}, "Hi there"},
		{[]string{"line", "", "next"}, "line\nnext"},
		{[]string{"", ""}, "\n\n"},
		{[]string{"[END]"}, ""},
		{[]string{"a", "[END]", "b"}, "ab"},
		{[]string{"{not json", " [END] "}, "{not json [END] "},
	}

	for _, tc := range cases {
		tr := Transcript{}.AppendTurn("q")
		var buf strings.Builder
		for _, c := range tc.chunks {
			if IsEndOfStream(c) {
				continue
			}
			buf.WriteString(NormalizeChunk(c))
			tr = tr.ReplaceLastAI(buf.String())
		}
		got, _ := tr.LastAI()
		assert.Equal(t, tc.want, got, "%q", tc.chunks)
		assert.Len(t, tr, 2)
	}
}
