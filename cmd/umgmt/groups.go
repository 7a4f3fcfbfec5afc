package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hnrobert/umgmt/internal/accounts"
)

var groupaddGID int

func init() {
	rootCmd.AddCommand(newGroupsCmd())

	add := newGroupaddCmd()
	add.Flags().IntVarP(&groupaddGID, "gid", "g", accounts.AutoID, "Group id (allocated when omitted)")
	rootCmd.AddCommand(add)

	rootCmd.AddCommand(newGroupdelCmd(), newRelationCmd("member"), newRelationCmd("admin"))
}

type groupRow struct {
	Name    string   `json:"name"`
	GID     int      `json:"gid"`
	Members []string `json:"members"`
	Admins  []string `json:"admins,omitempty"`
}

func newGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List groups with members and administrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := mgr.Load()
			if err != nil {
				return err
			}
			var rows []groupRow
			for g := range db.Groups() {
				rows = append(rows, groupRow{Name: g.Name, GID: g.GID, Members: g.MemberNames(), Admins: g.AdminNames()})
			}
			if jsonOut {
				return printJSON(rows)
			}
			for _, r := range rows {
				line := fmt.Sprintf("%-20s %6d  %s", r.Name, r.GID, strings.Join(r.Members, ","))
				if len(r.Admins) > 0 {
					line += "  admins=" + strings.Join(r.Admins, ",")
				}
				printInfo("%s\n", line)
			}
			return nil
		},
	}
}

func newGroupaddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groupadd <name>",
		Short: "Create an empty group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := mgr.AddGroup(args[0], groupaddGID)
			if err != nil {
				return err
			}
			printInfo("created %s (gid %d)\n", g.Name, g.GID)
			return nil
		},
	}
}

func newGroupdelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groupdel <name>",
		Short: "Delete a group that is no user's primary group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mgr.DeleteGroup(args[0])
		},
	}
}

// newRelationCmd builds "member" and "admin", each with add and remove.
func newRelationCmd(kind string) *cobra.Command {
	parent := &cobra.Command{
		Use:   kind,
		Short: fmt.Sprintf("Edit group %s lists", kind),
	}
	for verb, short := range map[string]string{"add": "Add", "remove": "Remove"} {
		parent.AddCommand(&cobra.Command{
			Use:   verb + " <group> <user>",
			Short: fmt.Sprintf("%s a %s", short, kind),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editRelation(kind, verb, args[0], args[1])
			},
		})
	}
	return parent
}

func editRelation(kind, verb, group, user string) error {
	switch kind + "/" + verb {
	case "member/add":
		return mgr.AddMember(group, user)
	case "member/remove":
		return mgr.RemoveMember(group, user)
	case "admin/add":
		return mgr.AddAdmin(group, user)
	case "admin/remove":
		return mgr.RemoveAdmin(group, user)
	}
	return fmt.Errorf("unknown %s operation %q", kind, verb)
}
