package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hnrobert/umgmt/internal/accounts"
)

var (
	useraddGroups     []string
	useraddSudo       bool
	useraddCreateHome bool
	useraddHome       string
	useraddShell      string
	useraddGecos      string
	useraddPassword   bool

	userdelRemoveHome bool
	userdelKill       bool
)

func init() {
	rootCmd.AddCommand(newUsersCmd())

	add := newUseraddCmd()
	add.Flags().StringSliceVarP(&useraddGroups, "groups", "G", nil, "Supplementary groups")
	add.Flags().BoolVar(&useraddSudo, "sudo", false, "Add to sudo (or wheel)")
	add.Flags().BoolVarP(&useraddCreateHome, "create-home", "m", false, "Create the home directory")
	add.Flags().StringVarP(&useraddHome, "home", "d", "", "Home directory")
	add.Flags().StringVarP(&useraddShell, "shell", "s", "", "Login shell")
	add.Flags().StringVar(&useraddGecos, "gecos", "", "GECOS field")
	add.Flags().BoolVarP(&useraddPassword, "password", "p", false, "Prompt for a password")
	rootCmd.AddCommand(add)

	del := newUserdelCmd()
	del.Flags().BoolVarP(&userdelRemoveHome, "remove", "r", false, "Remove the home directory")
	del.Flags().BoolVarP(&userdelKill, "force", "f", false, "Terminate the user's processes first")
	rootCmd.AddCommand(del)

	rootCmd.AddCommand(newPasswdCmd(), newVerifyCmd(), newLockCmd(), newChshCmd())
}

type userRow struct {
	Name   string   `json:"name"`
	UID    int      `json:"uid"`
	GID    int      `json:"gid"`
	Gecos  string   `json:"gecos,omitempty"`
	Home   string   `json:"home"`
	Shell  string   `json:"shell"`
	Groups []string `json:"groups,omitempty"`
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users with their supplementary groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := mgr.Load()
			if err != nil {
				return err
			}
			var rows []userRow
			for u := range db.Users() {
				r := userRow{Name: u.Name, UID: u.UID, GID: u.GID, Gecos: u.Gecos, Home: u.Home, Shell: u.Shell}
				for _, g := range db.GroupsOf(u) {
					r.Groups = append(r.Groups, g.Name)
				}
				rows = append(rows, r)
			}
			if jsonOut {
				return printJSON(rows)
			}
			for _, r := range rows {
				printInfo("%-16s %6d %6d  %-24s %-20s %s\n", r.Name, r.UID, r.GID, r.Home, r.Shell, strings.Join(r.Groups, ","))
			}
			return nil
		},
	}
}

func newUseraddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "useradd <name>",
		Short: "Create a user and its primary group",
		Long: `Create a user. A primary group of the same name is created when it
does not exist yet. Without --password the account is created locked.

Example:
  umgmt useradd alice -m -G users,docker --sudo -p`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := accounts.CreateUserRequest{
				Username:    args[0],
				Gecos:       useraddGecos,
				Home:        useraddHome,
				Shell:       useraddShell,
				AddToSudo:   useraddSudo,
				ExtraGroups: useraddGroups,
				CreateHome:  useraddCreateHome,
			}
			if useraddPassword {
				p, err := readPassword("New password", true)
				if err != nil {
					return err
				}
				req.Password = p
			}
			u, err := mgr.CreateUser(req)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(userRow{Name: u.Name, UID: u.UID, GID: u.GID, Gecos: u.Gecos, Home: u.Home, Shell: u.Shell})
			}
			printInfo("created %s (uid %d, gid %d)\n", u.Name, u.UID, u.GID)
			return nil
		},
	}
}

func newUserdelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "userdel <name>",
		Short: "Delete a user and drop it from all groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := mgr.DeleteUser(args[0], accounts.DeleteUserOptions{
				RemoveHome:    userdelRemoveHome,
				KillProcesses: userdelKill,
			})
			if err != nil {
				return err
			}
			printInfo("deleted %s\n", args[0])
			return nil
		},
	}
}

func newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <name>",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPassword("New password", true)
			if err != nil {
				return err
			}
			if err := mgr.SetPassword(args[0], p); err != nil {
				return err
			}
			printInfo("password updated for %s\n", args[0])
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <name>",
		Short: "Check a password against the shadow entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPassword("Password", false)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := mgr.VerifyPassword(ctx, args[0], p); err != nil {
				return err
			}
			printInfo("ok\n")
			return nil
		},
	}
}

func newLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock <name>",
		Short: "Disable password login for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mgr.Lock(args[0])
		},
	}
}

func newChshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chsh <name> <shell>",
		Short: "Change a user's login shell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := mgr.SetShell(args[0], args[1]); err != nil {
				return fmt.Errorf("chsh: %w", err)
			}
			return nil
		},
	}
}
