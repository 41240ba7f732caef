// Package utils provides shared helpers for confseal commands.
//
// # File Resolution
//
//   - ResolveConfigFiles: expands paths, directories and ** globs into
//     configuration files
//   - FormatPaths: formats file paths for human-readable output
//
// # System and Terminal
//
//   - GetUsername: returns the current account name
//   - ReadPassphrase: prompts for a passphrase without echo
//   - IsTerminal: checks whether stdin is a terminal
//   - ReadStdin: reads piped input
package utils
