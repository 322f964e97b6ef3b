// Package recurrence turns stored schedule rows into concrete occurrences.
//
// Expansion is pure: the same definition and policy always yield the same
// occurrences, ids included. A recurring definition is stepped one calendar
// unit at a time from its previous occurrence using time.AddDate, so a
// monthly series that starts on Jan 31 continues on Mar 2 (Feb 31
// normalised), then Apr 2, and so on. Each pattern stops at a fixed horizon
// measured from the series start.
package recurrence
