// Package domain contains the core business entities of the task service:
// tasks, their owners, and the rules that keep a task's reminder state
// consistent with its due date.
package domain
