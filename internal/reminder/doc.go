// Package reminder schedules and delivers due-date reminder emails.
//
// A pass (Dispatcher.RunPass) selects every task whose due date falls inside
// the 24 hour window starting at the pass instant, emails each owner once and
// records reminder_sent_at so later passes skip the task. The Trigger runs one
// pass at startup and then one per UTC hour.
//
// Delivery is at-most-nearly-once: a task whose email was sent but whose
// write-back failed stays eligible and is sent again on a later pass.
package reminder
