// Package adminctl provisions admins from the command line, for deployments
// that switch public admin registration off.
package adminctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"github.com/dmitrijs2005/aidesk/internal/flagx"
	"github.com/dmitrijs2005/aidesk/internal/server/services"
)

// Registrar creates admins; *services.AuthService implements it.
type Registrar interface {
	RegisterAdmin(ctx context.Context, in services.AdminRegistration) (*services.AdminSession, error)
}

// Options are the admin fields given on the command line. Missing email or
// username are prompted for.
type Options struct {
	Email    string
	Username string
	Role     string
	Module   string
}

// ParseOptions reads -email, -username, -role and -module from args and
// ignores everything else, so server flags such as -d can share the line.
func ParseOptions(args []string) (Options, error) {
	var o Options

	args = flagx.FilterArgs(args, []string{"-email", "-username", "-role", "-module"})

	fs := flag.NewFlagSet("adminctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.Email, "email", "", "admin email")
	fs.StringVar(&o.Username, "username", "", "admin username")
	fs.StringVar(&o.Role, "role", "", "admin role (default admin)")
	fs.StringVar(&o.Module, "module", "", "module the admin is scoped to")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	return o, nil
}

type App struct {
	registrar Registrar
	in        *bufio.Reader
	inFd      int
	out       io.Writer
}

func NewApp(r Registrar, in *os.File, out io.Writer) *App {
	return &App{registrar: r, in: bufio.NewReader(in), inFd: int(in.Fd()), out: out}
}

// Run prompts for what is missing, registers the admin and prints its id
// and a token.
func (app *App) Run(ctx context.Context, o Options) error {
	var err error

	if o.Email == "" {
		if o.Email, err = getLine(app.in, "Email", app.out); err != nil {
			return err
		}
	}
	if o.Username == "" {
		if o.Username, err = getLine(app.in, "Username", app.out); err != nil {
			return err
		}
	}

	pw, err := getPassword(app.inFd, app.in, app.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	in := services.AdminRegistration{
		Email:    o.Email,
		Username: o.Username,
		Password: string(pw),
		Role:     o.Role,
	}
	if o.Module != "" {
		in.Module = &o.Module
	}

	sess, err := app.registrar.RegisterAdmin(ctx, in)
	if err != nil {
		var ce *common.Error
		if errors.As(err, &ce) {
			return errors.New(ce.Message)
		}
		return err
	}

	fmt.Fprintf(app.out, "Admin %d created: %s (%s)\n", sess.Admin.ID, sess.Admin.Email, sess.Admin.Role)
	fmt.Fprintf(app.out, "Token (expires %s):\n%s\n", sess.ExpiresAt.Format("2006-01-02 15:04:05 MST"), sess.Token)
	return nil
}
