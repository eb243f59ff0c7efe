// Package firestore stores tasks and users in Cloud Firestore.
//
// Firestore cannot express "status != completed" in the same query as the
// due date range, so FindDueCandidates narrows with an indexed query and
// applies the reminder selector to the results.
package firestore
