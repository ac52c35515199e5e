// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides rendering pieces shared by the chat screen and
the plain CLI output.

CodeBlock (codeblock.go) - Syntax-highlighted code blocks using Chroma, with
a language badge and line numbers.

Markdown (markdown.go) - Glamour rendering for prose with code fences routed
through CodeBlock.

SplitFences and LastCodeBlock expose the fence parser, which the chat screen
uses to copy the last code block to the clipboard.
*/
package components
