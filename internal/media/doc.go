// Package media provides in-process implementations of the collaborators a
// sub-device registers with: the media graph, the async sub-device notifier
// and runtime power management.
package media
