// Package hostfs provides safe access helpers for the account files of a host.
//
// A Host maps absolute host paths onto a root directory, which is "/" when the
// tool runs directly on the machine and a mount point such as /host when it
// runs inside a container:
//
//	/etc/passwd  -> <root>/etc/passwd
//	/etc/shadow  -> <root>/etc/shadow
//	/etc/group   -> <root>/etc/group
//	/etc/gshadow -> <root>/etc/gshadow
//	/home        -> <root>/home
//
// Reads and writes of one path are serialised within the process only. No
// lock is taken against other processes editing the same files.
package hostfs
