// Package resource bounds embedding concurrency, background flushes and
// archive upload bandwidth for one database. A nil *Controller imposes no
// limits.
package resource
