// Package notify turns successful todo mutations into change events and
// delivers them to Teams, Slack, or generic HTTP webhook targets. Delivery
// is asynchronous and best-effort: failures are logged, never surfaced to the
// request that caused the change.
package notify
