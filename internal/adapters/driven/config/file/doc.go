// Package file provides file-based configuration and prompt storage.
// Configuration lives in a TOML file; prompts are plain text files that
// users can edit, watched for changes so edits take effect immediately.
package file
