// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitFences(t *testing.T) {
	text := "Intro\n\n```go\nfmt.Println(1)\n```\nMiddle\n```\nplain\n```"
	segs := SplitFences(text)

	require.Equal(t, []Segment{
		{Text: "Intro\n"},
		{Code: true, Language: "go", Text: "fmt.Println(1)"},
		{Text: "Middle"},
		{Code: true, Text: "plain"},
	}, segs)
}

func TestSplitFences_Unclosed(t *testing.T) {
	segs := SplitFences("a\n```py\nprint(1)")
	require.Len(t, segs, 2)
	require.True(t, segs[1].Code)
	require.Equal(t, "py", segs[1].Language)
	require.Equal(t, "print(1)", segs[1].Text)
}

func TestLastCodeBlock(t *testing.T) {
	code, ok := LastCodeBlock("```sh\nls\n```\ntext\n```go\nx := 1\n```")
	require.True(t, ok)
	require.Equal(t, "x := 1", code)

	_, ok = LastCodeBlock("no code here")
	require.False(t, ok)
}

func TestCodeBlock_RenderKeepsCode(t *testing.T) {
	cb := NewCodeBlock("", "hello world")
	cb.Style = "no-such-style"
	out := cb.Render()
	require.Contains(t, out, "1")
	require.Contains(t, out, "hello")
}

func TestMarkdown_Render(t *testing.T) {
	md, err := NewMarkdown("notty", "", 60)
	require.NoError(t, err)

	out := md.Render("**Bold** text\n\n```go\nfunc main() {}\n```")
	require.Contains(t, out, "Bold")
	require.Contains(t, out, "go")
	require.Contains(t, out, "main")
	require.False(t, strings.Contains(out, "```"), "fences are rendered, not echoed")
}

func TestMarkdown_SetWidthFloor(t *testing.T) {
	md, err := NewMarkdown("notty", "", 5)
	require.NoError(t, err)
	require.Equal(t, 20, md.Width())
}
