// Package notifications delivers run outcomes to the dataset's
// requester and failure alerts to the operations channel. Delivery
// failures are reported to callers but must never change job state;
// the pipeline logs and moves on.
package notifications
