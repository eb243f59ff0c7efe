// Package service holds the task mutation path. Every write that touches a
// task's due date goes through TaskService, which keeps the reminder marker
// consistent with the due date.
package service
