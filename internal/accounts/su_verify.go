package accounts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

const suTimeout = 6 * time.Second

// verifyWithSu asks su(1) to run /bin/true as username and answers its
// password prompt through a pty. It handles yescrypt ($y$) and any other
// scheme the host's PAM stack accepts but shadow.VerifyCrypt does not.
func verifyWithSu(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" {
		return false, ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, suTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "su", "-s", "/bin/sh", "-c", "true", username)
	tty, err := pty.Start(cmd)
	if err != nil {
		return false, fmt.Errorf("%w: start su: %v", ErrAuthBackend, err)
	}

	ans := &promptAnswer{w: tty, reply: password + "\n"}
	copied := make(chan struct{})
	go func() {
		defer close(copied)
		// Ends with EIO once su exits and the pty hangs up.
		_, _ = io.Copy(ans, tty)
	}()

	werr := cmd.Wait()
	_ = tty.Close()
	<-copied

	var exit *exec.ExitError
	switch {
	case ctx.Err() != nil:
		return false, fmt.Errorf("%w: su timed out", ErrAuthBackend)
	case werr != nil && !errors.As(werr, &exit):
		return false, fmt.Errorf("%w: su: %v", ErrAuthBackend, werr)
	case !ans.answered():
		// root is never prompted, so a clean exit proves nothing
		return false, fmt.Errorf("%w: su did not ask for a password", ErrAuthBackend)
	case werr == nil:
		return true, nil
	default:
		return false, nil
	}
}

// promptAnswer collects su's output and writes reply once a password
// prompt shows up.
type promptAnswer struct {
	w     io.Writer
	reply string

	mu   sync.Mutex
	seen bytes.Buffer
	done bool
}

func (p *promptAnswer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return len(b), nil
	}
	p.seen.Write(b)
	if bytes.Contains(bytes.ToLower(p.seen.Bytes()), []byte("password")) {
		p.done = true
		p.seen.Reset()
		if _, err := io.WriteString(p.w, p.reply); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

func (p *promptAnswer) answered() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
