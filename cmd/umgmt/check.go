package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("account files are inconsistent")

func init() {
	rootCmd.AddCommand(newCheckCmd(), newNextIDCmd(), newConfigCmd())
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report orphaned records, unknown members and hash formats",
		Long: `check loads the account files read-only and reports shadow or
gshadow entries without a primary entry, group members that are not users,
duplicate names and the password hash format of each user.
It exits non-zero when anything was skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := mgr.Check()
			if err != nil {
				return err
			}
			if jsonOut {
				if err := printJSON(r); err != nil {
					return err
				}
			} else {
				for _, n := range r.Load.OrphanShadow {
					printInfo("shadow entry without user: %s\n", n)
				}
				for _, n := range r.Load.OrphanGshadow {
					printInfo("gshadow entry without group: %s\n", n)
				}
				for _, u := range r.Load.Unresolved {
					role := "member"
					if u.Admin {
						role = "admin"
					}
					printInfo("group %s: unknown %s %s\n", u.Group, role, u.User)
				}
				for _, d := range r.Load.Duplicates {
					printInfo("duplicate entry: %s\n", d)
				}
				if r.Integrity != nil {
					printInfo("%v\n", r.Integrity)
				}
				for _, c := range r.Credentials {
					printInfo("%-16s %-18s %s\n", c.User, c.Status, c.Algorithm)
				}
			}
			if !r.Clean() {
				return errCheckFailed
			}
			return nil
		},
	}
}

func newNextIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nextid",
		Short: "Print the uid and gid the next useradd would allocate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, gid, err := mgr.NextIDs()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(map[string]int{"uid": uid, "gid": gid})
			}
			printInfo("uid %d\ngid %d\n", uid, gid)
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := cfg.Marshal()
			if err != nil {
				return err
			}
			printInfo("%s", b)
			return nil
		},
	}
}
