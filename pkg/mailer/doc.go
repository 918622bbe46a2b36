// Package mailer defines the email message type and the provider contract
// used by the email service.
//
// A provider sends a single Email and returns its message id, or sends a
// batch and returns one id per email in request order. Mailer sits in front
// of the provider: it validates messages, enforces MaxBatchSize, checks that
// a batch answer has one id per email and notifies Observers (metrics) after
// every call.
//
// The package also carries the pieces shared by the template layer:
// SplitFrontmatter reads the YAML header of a template file, and
// NewButtonExtension teaches goldmark the [!button|Label](url) syntax used in
// admin-authored content.
package mailer
