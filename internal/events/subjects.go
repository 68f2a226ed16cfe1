// Package events publishes daemon lifecycle and session-failure
// notifications to NATS core subjects. These are fire-and-forget signals for
// external observers; nothing in the orchestrator core depends on them
// being delivered or even subscribed to.
package events

import "fmt"

const (
	// SubjectDaemonStatus carries every daemon state transition.
	SubjectDaemonStatus = "ticker.daemon.status"
	// subjectSessionFailurePrefix is the parent of one subject per exchange.
	subjectSessionFailurePrefix = "ticker.session.failure"
)

// SubjectSessionFailure returns the per-exchange subject for session and
// subscription failures, so a consumer can wildcard-subscribe to
// "ticker.session.failure.>" or narrow to one exchange.
func SubjectSessionFailure(exchange string) string {
	return fmt.Sprintf("%s.%s", subjectSessionFailurePrefix, exchange)
}
