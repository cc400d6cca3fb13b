// Package sanitizer normalizes user input before validation and storage.
//
// Every function is idempotent and never fails: input that cannot be normalized
// is returned trimmed, or empty, and left for the validator to reject.
package sanitizer
