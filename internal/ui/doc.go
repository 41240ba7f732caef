// Package ui provides semantic text formatting for confseal output.
//
// Formatters exist per kind of content (paths, commands, section names,
// status markers). With a color terminal the text is colorized. With
// NO_COLOR set, or when fatih/color detects no color support, formatters
// fall back to plain text decorations:
//
//   - Code: `backticks`
//   - Highlight: 'single quotes'
//   - Muted: (parentheses)
//   - Section: <angle brackets>
//   - Others: no decoration
//
// Usage:
//
//	ui.Code.Sprint("confseal protect web.config")
//	ui.Section.Sprint("connectionStrings")
//	ui.SectionState(true) // "protected"
package ui
