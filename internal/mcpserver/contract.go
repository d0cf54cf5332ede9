package mcpserver

// BlockFormatContract describes the block fields that LLM consumers should
// send when editing blocks.
const BlockFormatContract = `# Cheat-sheet Block Format Contract

A sheet is a list of pages. Every page has exactly three columns and every
column is a list of blocks, top to bottom.

## Content block

` + "```" + `json
{
  "type": "def",
  "content": "Euler: $e^{i\\pi} + 1 = 0$",
  "height": "2cm",
  "autoHeight": false,
  "manualFontSize": 100,
  "vAlign": "center",
  "hAlign": "flex-start",
  "important": false
}
` + "```" + `

## Rules

1. **type** is a lowercase style tag (e.g. ` + "`" + `def` + "`" + `). It only affects styling.
2. **content** is plain text. Newlines are kept. Math goes between ` + "`" + `$...$` + "`" + `,
   ` + "`" + `$$...$$` + "`" + `, ` + "`" + `\(...\)` + "`" + ` or ` + "`" + `\[...\]` + "`" + `.
3. **height** is a CSS length (` + "`" + `2cm` + "`" + `, ` + "`" + `15mm` + "`" + `, ` + "`" + `40px` + "`" + `) used when
   **autoHeight** is false. Text in a fixed-height block shrinks until it fits.
4. **autoHeight** lets the block grow with its content (at least 1cm).
5. **manualFontSize** is the starting font scale in percent (default 100, range 5-400).
6. **vAlign** / **hAlign** are ` + "`" + `flex-start` + "`" + `, ` + "`" + `center` + "`" + ` or ` + "`" + `flex-end` + "`" + `
   (` + "`" + `start` + "`" + `/` + "`" + `end` + "`" + ` are accepted too).
7. **important** renders the block emphasised.

## Dividers

` + "`" + `{"type": "sdivider"}` + "`" + ` and ` + "`" + `{"type": "double-divider"}` + "`" + ` are separators. Any other
field sent with a divider is discarded. A separator is inserted automatically
when a block is added to a non-empty column, and auto-distribution regenerates
separators between neighbouring blocks.

## Positions

Positions are zero-based ` + "`" + `page` + "`" + `, ` + "`" + `column` + "`" + ` (0-2) and ` + "`" + `index` + "`" + `. Read the sheet
with ` + "`" + `get_document` + "`" + ` before addressing a block; indices shift after every edit.
`
