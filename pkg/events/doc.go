// Package events defines the raw input events consumed by the gesture
// classifier and the sources that produce them: the macOS Quartz event tap
// (with Accessibility approval), a deterministic synthetic script for other
// platforms and tests, JSONL replay files, and a NATS subject.
package events
