package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/models"
	"github.com/nkiryanov/clinicdesk/internal/service/session"
	"github.com/nkiryanov/clinicdesk/internal/sessionctx"
)

// failure is returned by commands; message is what the user sees
type failure struct {
	message string
	err     error
}

func (f *failure) Error() string {
	return f.message
}

func (f *failure) Unwrap() error {
	return f.err
}

// sessionFailure uses message of the session state, the error itself if state has none
func sessionFailure(consumer session.Consumer, err error) *failure {
	message := consumer.Snapshot().Error
	if message == "" {
		message = err.Error()
	}
	return &failure{message: message, err: err}
}

type command func(ctx context.Context, a *App, args []string, stdin io.Reader) error

var commands = map[string]command{
	"login":     loginCommand,
	"register":  registerCommand,
	"logout":    logoutCommand,
	"status":    statusCommand,
	"refresh":   refreshCommand,
	"dashboard": dashboardCommand,
}

// Run restores session and runs command inside the session scope
func (a *App) Run(ctx context.Context, name string, args []string, stdin io.Reader) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, expected one of: login, register, logout, status, refresh, dashboard", name)
	}

	// Store is left anonymous with the error recorded, so logout can still clean up
	if err := a.Session.Initialize(ctx); err != nil {
		a.Logger.Warn("Session not restored, continuing as anonymous", "error", err)
	}

	return cmd(sessionctx.New(ctx, a.Session), a, args, stdin)
}

func loginCommand(ctx context.Context, a *App, args []string, stdin io.Reader) error {
	var creds models.Credentials

	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	fs.StringVarP(&creds.Username, "username", "u", "", "Username")
	fs.StringVarP(&creds.Password, "password", "p", "", "Password, read from stdin if not set")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if creds.Password == "" {
		password, err := readLine(stdin)
		if err != nil {
			return err
		}
		creds.Password = password
	}

	consumer := sessionctx.Must(ctx)
	if err := consumer.Login(ctx, creds); err != nil {
		return sessionFailure(consumer, err)
	}

	return a.Printer.Session(consumer.Snapshot())
}

func registerCommand(ctx context.Context, a *App, args []string, stdin io.Reader) error {
	data := models.RegisterData{UserType: models.RolePatient}

	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	fs.StringVarP(&data.Username, "username", "u", "", "Username")
	fs.StringVar(&data.Email, "email", "", "Email")
	fs.StringVarP(&data.Password, "password", "p", "", "Password, read from stdin if not set")
	fs.StringVar(&data.Password2, "password2", "", "Password confirmation, same as password if not set")
	fs.StringVar(&data.FirstName, "first-name", "", "First name")
	fs.StringVar(&data.LastName, "last-name", "", "Last name")
	fs.StringVarP(&data.UserType, "user-type", "t", data.UserType, "Account type (patient, doctor, admin)")
	fs.StringVar(&data.PhoneNumber, "phone", "", "Phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if data.Password == "" {
		password, err := readLine(stdin)
		if err != nil {
			return err
		}
		data.Password = password
	}
	if data.Password2 == "" {
		data.Password2 = data.Password
	}

	consumer := sessionctx.Must(ctx)
	if err := consumer.Register(ctx, data); err != nil {
		return sessionFailure(consumer, err)
	}

	return a.Printer.Session(consumer.Snapshot())
}

func logoutCommand(ctx context.Context, a *App, _ []string, _ io.Reader) error {
	consumer := sessionctx.Must(ctx)
	consumer.Logout(ctx)

	return a.Printer.Session(consumer.Snapshot())
}

func statusCommand(ctx context.Context, a *App, _ []string, _ io.Reader) error {
	return a.Printer.Session(sessionctx.Must(ctx).Snapshot())
}

func refreshCommand(ctx context.Context, a *App, _ []string, _ io.Reader) error {
	if err := a.Session.Refresh(ctx); err != nil {
		return &failure{message: "Session refresh failed", err: err}
	}

	return a.Printer.Session(a.Session.Snapshot())
}

func dashboardCommand(ctx context.Context, a *App, args []string, _ io.Reader) error {
	var doctorID int64

	fs := pflag.NewFlagSet("dashboard", pflag.ContinueOnError)
	fs.Int64VarP(&doctorID, "doctor", "d", 0, "Doctor ID, the logged in doctor if not set")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if doctorID == 0 {
		id, err := currentDoctor(sessionctx.Must(ctx).Snapshot())
		if err != nil {
			return err
		}
		doctorID = id
	}

	d, err := a.Dashboard.Load(ctx, doctorID)
	if err != nil {
		return &failure{message: "Failed to load dashboard", err: err}
	}

	return a.Printer.Dashboard(d)
}

// currentDoctor returns id of the logged in doctor
func currentDoctor(st session.State) (int64, error) {
	if !st.HasToken() {
		return 0, apperrors.ErrNoSession
	}
	if st.Identity == nil || st.Identity.ID == 0 {
		return 0, errors.New("doctor id is required: identity of the session is not resolved")
	}
	if st.Identity.Role != "" && st.Identity.Role != models.RoleDoctor {
		return 0, fmt.Errorf("doctor id is required: logged in as %s", st.Identity.Role)
	}
	return st.Identity.ID, nil
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", errors.New("password is required")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}
