package accounts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/hnrobert/umgmt/internal/hostfs"
	"github.com/hnrobert/umgmt/internal/procs"
	"github.com/hnrobert/umgmt/internal/shadow"
	"github.com/hnrobert/umgmt/internal/umdb"
)

var fixedNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	fs afero.Fs
	m  *Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	aliceHash, err := shadow.Crypt("secret", "sha512")
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"etc/passwd":  "root:x:0:0:root:/root:/bin/bash\nalice:x:1000:1000:Alice:/home/alice:/bin/bash\n",
		"etc/shadow":  "root:*:19000:0:99999:7:::\nalice:" + aliceHash + ":19000:0:99999:7:::\n",
		"etc/group":   "root:x:0:\nalice:x:1000:\nsudo:x:27:\nusers:x:100:\n",
		"etc/gshadow": "root:*::\nalice:!::\nsudo:*::\nusers:*::\n",
	}
	for rel, content := range files {
		require.NoError(t, afero.WriteFile(fs, "/host/"+rel, []byte(content), 0644))
	}
	require.NoError(t, fs.MkdirAll("/host/home/alice/.config", 0755))

	m := New(hostfs.New("/host", fs), procs.New(fs, "/proc"), Options{})
	m.now = func() time.Time { return fixedNow }
	m.suVerify = func(context.Context, string, string) (bool, error) {
		t.Fatal("su fallback not expected")
		return false, nil
	}
	return &env{fs: fs, m: m}
}

func (e *env) load(t *testing.T) *umdb.Database {
	t.Helper()
	db, err := e.m.Load()
	require.NoError(t, err)
	return db
}

func TestCreateUser(t *testing.T) {
	e := newEnv(t)
	u, err := e.m.CreateUser(CreateUserRequest{
		Username:    "bob",
		Password:    "hunter2",
		ExtraGroups: []string{"users", " "},
		AddToSudo:   true,
		CreateHome:  true,
	})
	require.NoError(t, err)
	require.Equal(t, 1001, u.UID)
	db := e.load(t)

	bob, ok := db.GetUser("bob")
	require.True(t, ok)
	require.Equal(t, 1001, bob.UID)
	require.Equal(t, 1001, bob.GID)
	require.Equal(t, "/home/bob", bob.Home)
	require.Equal(t, "/bin/bash", bob.Shell)
	require.Equal(t, fixedNow.Unix()/86400, bob.Shadow.LastChange)
	require.EqualValues(t, 99999, bob.Shadow.Max)

	g, ok := db.GetGroup("bob")
	require.True(t, ok)
	require.Equal(t, 1001, g.GID)

	for _, name := range []string{"users", "sudo"} {
		grp, _ := db.GetGroup(name)
		require.True(t, grp.HasMember(bob), name)
	}
	isAdmin, err := e.m.IsAdmin("bob")
	require.NoError(t, err)
	require.True(t, isAdmin)

	st, err := e.fs.Stat("/host/home/bob")
	require.NoError(t, err)
	require.True(t, st.IsDir())

	require.NoError(t, e.m.VerifyPassword(context.Background(), "bob", "hunter2"))
	require.ErrorIs(t, e.m.VerifyPassword(context.Background(), "bob", "hunter3"), ErrInvalidCredentials)
}

func TestCreateUser_Rejects(t *testing.T) {
	e := newEnv(t)
	before, err := afero.ReadFile(e.fs, "/host/etc/passwd")
	require.NoError(t, err)

	_, err = e.m.CreateUser(CreateUserRequest{Username: "alice"})
	require.ErrorIs(t, err, umdb.ErrExists)

	_, err = e.m.CreateUser(CreateUserRequest{Username: "Bad Name"})
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = e.m.CreateUser(CreateUserRequest{Username: "carol", ExtraGroups: []string{"nope"}})
	require.ErrorIs(t, err, ErrGroupNotFound)

	for _, req := range []CreateUserRequest{
		{Username: "bob", Gecos: "Bob:Admin"},
		{Username: "bob", Home: "/home/bob:/x"},
		{Username: "bob", Home: "home/bob"},
		{Username: "bob", Shell: "/bin/sh\nroot::0:0::/:/bin/sh"},
		{Username: "bob", PasswordHash: "$6$a:b"},
	} {
		_, err = e.m.CreateUser(req)
		require.Error(t, err, "%+v", req)
	}

	after, err := afero.ReadFile(e.fs, "/host/etc/passwd")
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
}

func TestCreateUser_LockedWithoutPassword(t *testing.T) {
	e := newEnv(t)
	_, err := e.m.CreateUser(CreateUserRequest{Username: "svc", Shell: "/usr/sbin/nologin"})
	require.NoError(t, err)
	require.ErrorIs(t, e.m.VerifyPassword(context.Background(), "svc", ""), ErrUserLocked)
}

func TestDeleteUser(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.m.AddMember("users", "alice"))
	require.NoError(t, e.m.AddAdmin("users", "alice"))

	require.NoError(t, e.m.DeleteUser("alice", DeleteUserOptions{RemoveHome: true}))
	db := e.load(t)
	_, ok := db.GetUser("alice")
	require.False(t, ok)
	_, ok = db.GetGroup("alice")
	require.False(t, ok)
	users, _ := db.GetGroup("users")
	require.Empty(t, users.MemberNames())
	require.Empty(t, users.AdminNames())

	exists, err := afero.DirExists(e.fs, "/host/home/alice")
	require.NoError(t, err)
	require.False(t, exists)

	require.ErrorIs(t, e.m.DeleteUser("alice", DeleteUserOptions{}), ErrUserNotFound)
	require.ErrorIs(t, e.m.DeleteUser("root", DeleteUserOptions{}), ErrProtected)
}

func TestDeleteUser_KeepsSharedPrimaryGroup(t *testing.T) {
	e := newEnv(t)
	_, err := e.m.CreateUser(CreateUserRequest{Username: "bob"})
	require.NoError(t, err)
	require.NoError(t, e.m.AddMember("alice", "bob"))

	require.NoError(t, e.m.DeleteUser("alice", DeleteUserOptions{}))
	_, ok := e.load(t).GetGroup("alice")
	require.True(t, ok)
}

func TestDeleteUser_KillsProcesses(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, afero.WriteFile(e.fs, "/proc/4242/status", []byte("Name:\tvim\nUid:\t1000\t1000\t1000\t1000\n"), 0444))
	require.NoError(t, afero.WriteFile(e.fs, "/proc/4243/status", []byte("Name:\tsshd\nUid:\t0\t0\t0\t0\n"), 0444))

	var killed []int
	e.m.procs.SetKill(func(pid int, sig unix.Signal) error {
		require.Equal(t, unix.SIGTERM, sig)
		killed = append(killed, pid)
		return nil
	})
	require.NoError(t, e.m.DeleteUser("alice", DeleteUserOptions{KillProcesses: true}))
	require.Equal(t, []int{4242}, killed)
}

func TestGroups(t *testing.T) {
	e := newEnv(t)

	g, err := e.m.AddGroup("devs", AutoID)
	require.NoError(t, err)
	require.Equal(t, 1001, g.GID)

	_, err = e.m.AddGroup("devs", AutoID)
	require.ErrorIs(t, err, umdb.ErrExists)
	_, err = e.m.AddGroup("docker", 27)
	require.ErrorIs(t, err, umdb.ErrExists)
	g, err = e.m.AddGroup("docker", 999)
	require.NoError(t, err)
	require.Equal(t, 999, g.GID)

	require.ErrorIs(t, e.m.DeleteGroup("alice"), ErrGroupInUse)
	require.ErrorIs(t, e.m.DeleteGroup("nope"), ErrGroupNotFound)

	require.NoError(t, e.m.AddMember("devs", "alice"))
	require.NoError(t, e.m.AddMember("devs", "alice"))
	require.NoError(t, e.m.AddAdmin("devs", "alice"))
	devs, _ := e.load(t).GetGroup("devs")
	require.Equal(t, []string{"alice"}, devs.MemberNames())
	require.Equal(t, []string{"alice"}, devs.AdminNames())

	require.NoError(t, e.m.RemoveMember("devs", "alice"))
	require.ErrorIs(t, e.m.RemoveMember("devs", "alice"), ErrNotMember)
	require.NoError(t, e.m.RemoveAdmin("devs", "alice"))
	require.ErrorIs(t, e.m.AddMember("devs", "ghost"), ErrUserNotFound)
	require.ErrorIs(t, e.m.AddMember("ghosts", "alice"), ErrGroupNotFound)

	require.NoError(t, e.m.DeleteGroup("devs"))
	_, ok := e.load(t).GetGroup("devs")
	require.False(t, ok)

	isAdmin, err := e.m.IsAdmin("alice")
	require.NoError(t, err)
	require.False(t, isAdmin)
}

func TestPasswords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.m.VerifyPassword(ctx, "alice", "secret"))
	require.ErrorIs(t, e.m.VerifyPassword(ctx, "alice", "nope"), ErrInvalidCredentials)
	require.ErrorIs(t, e.m.VerifyPassword(ctx, "ghost", "x"), ErrInvalidCredentials)
	require.ErrorIs(t, e.m.VerifyPassword(ctx, "root", ""), ErrUserLocked)

	require.NoError(t, e.m.SetPassword("alice", "n3w"))
	require.NoError(t, e.m.VerifyPassword(ctx, "alice", "n3w"))
	alice, _ := e.load(t).GetUser("alice")
	require.Equal(t, fixedNow.Unix()/86400, alice.Shadow.LastChange)

	require.NoError(t, e.m.Lock("alice"))
	require.NoError(t, e.m.Lock("alice"))
	require.ErrorIs(t, e.m.VerifyPassword(ctx, "alice", "n3w"), ErrUserLocked)
	alice, _ = e.load(t).GetUser("alice")
	require.True(t, strings.HasPrefix(alice.Shadow.PasswordHash, "!$6$"))

	require.ErrorIs(t, e.m.SetPassword("ghost", "x"), ErrUserNotFound)
}

func TestVerifyPassword_FallsBackToSu(t *testing.T) {
	e := newEnv(t)
	_, err := e.m.CreateUser(CreateUserRequest{Username: "yes", PasswordHash: "$y$j9T$abcdefgh$ijklmnop"})
	require.NoError(t, err)

	var called string
	e.m.suVerify = func(_ context.Context, user, password string) (bool, error) {
		called = user
		return password == "right", nil
	}
	require.NoError(t, e.m.VerifyPassword(context.Background(), "yes", "right"))
	require.Equal(t, "yes", called)
	require.ErrorIs(t, e.m.VerifyPassword(context.Background(), "yes", "wrong"), ErrInvalidCredentials)
}

func TestCheck(t *testing.T) {
	e := newEnv(t)
	_, err := e.m.CreateUser(CreateUserRequest{Username: "yes", PasswordHash: "$y$j9T$abcdefgh$ijklmnop"})
	require.NoError(t, err)
	_, err = e.m.CreateUser(CreateUserRequest{Username: "odd", PasswordHash: "$9$salt$hash"})
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(e.fs, "/host/etc/shadow",
		append(mustRead(t, e.fs, "/host/etc/shadow"), []byte("ghost:*:1::::::\n")...), 0600))

	r, err := e.m.Check()
	require.NoError(t, err)
	require.False(t, r.Clean())
	require.NoError(t, r.Integrity)
	require.Equal(t, []string{"ghost"}, r.Load.OrphanShadow)
	require.Equal(t, []CredentialInfo{
		{User: "root", Status: CredentialLocked},
		{User: "alice", Status: CredentialOK, Algorithm: "sha512"},
		{User: "yes", Status: CredentialExtended},
		{User: "odd", Status: CredentialUnknown, Algorithm: "9"},
	}, r.Credentials)
}

func TestNextIDs(t *testing.T) {
	e := newEnv(t)
	uid, gid, err := e.m.NextIDs()
	require.NoError(t, err)
	require.Equal(t, 1001, uid)
	require.Equal(t, 1001, gid)

	e.m.opts.IDMin = 5000
	uid, _, err = e.m.NextIDs()
	require.NoError(t, err)
	require.Equal(t, 5000, uid)

	e.m.opts.IDMax = 5000
	_, _, err = e.m.NextIDs()
	require.ErrorIs(t, err, ErrIDExhausted)
}

func TestValidName(t *testing.T) {
	for _, ok := range []string{"alice", "_svc", "a-b_c1"} {
		require.True(t, ValidName(ok), ok)
	}
	for _, bad := range []string{"", "Alice", "1abc", "a:b", "averyveryveryveryverylongusername1"} {
		require.False(t, ValidName(bad), bad)
	}
}

func mustRead(t *testing.T, fs afero.Fs, path string) []byte {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return b
}
