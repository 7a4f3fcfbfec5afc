// Package umdb is an in-memory model of the local account database.
//
// Load joins passwd, shadow, group and gshadow records into Users and Groups
// whose member and admin lists point at the Users themselves. Store derives
// the four record streams back from that graph.
//
// A Database is not safe for concurrent use, and nothing here locks the
// account files against other processes: callers that edit a live system must
// hold whatever lock their platform uses (for example lckpwdf(3)) around
// Load, the mutations and Store.
package umdb
