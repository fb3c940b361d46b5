// Package triage provides the business boundary for Dispatch's alert
// routing pipeline. It defines the Service (dedup, lifecycle, async
// dispatch), the Store interface (persistence), and the Result envelope
// tying an alert record to its verdict and routing outcomes.
package triage
