// Package mvcc provides the visibility rule and the logical clock used to
// version rows.
//
// A version is visible at read timestamp t when it began at or before t and
// has either not ended or ends strictly after t. Both point lookups and full
// scans use [VisibleAt].
package mvcc
