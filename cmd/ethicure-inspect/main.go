// Command ethicure-inspect prints what the configured storage holds: the
// stored keys, a role document as the application would read it, the
// registered users or the active session.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"ethicure/internal/app"
	"ethicure/internal/config"
	"ethicure/pkg/domain"
)

var (
	exitFunc   = os.Exit
	loadConfig = config.Load
)

const usage = `usage: ethicure-inspect <command> [flags]

commands:
  keys     list stored keys (-prefix narrows the listing)
  doc      print a reconciled role document (-role, -user)
  users    list registered users without passwords
  session  print the active session
`

func main() {
	code := cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		_, _ = fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet("ethicure-inspect "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		prefix   string
		role     string
		username string
	)
	switch cmd {
	case "keys":
		fs.StringVar(&prefix, "prefix", "", "key prefix to list (default: configured namespace)")
	case "doc":
		fs.StringVar(&role, "role", "", "role of the document: "+roleNames())
		fs.StringVar(&username, "user", "", "username owning the document")
	case "users", "session":
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n%s", cmd, usage)
		return 2
	}
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	a, err := app.New(ctx, cfg, app.WithLogOutput(stderr))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "startup: %v\n", err)
		return 1
	}
	defer func() { _ = a.Close() }()

	switch cmd {
	case "keys":
		err = listKeys(ctx, a, prefix, stdout)
	case "doc":
		err = printDocument(ctx, a, role, username, stdout)
	case "users":
		err = printUsers(ctx, a, stdout)
	case "session":
		err = printSession(ctx, a, stdout)
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func roleNames() string {
	names := make([]string, 0, len(domain.Roles()))
	for _, r := range domain.Roles() {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

func listKeys(ctx context.Context, a *app.App, prefix string, w io.Writer) error {
	if prefix == "" {
		prefix = a.Config.KeyPrefix + ":"
	}
	entries, err := a.Store.List(ctx, prefix)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KEY\tREVISION\tBYTES\tUPDATED")
	for _, e := range entries {
		updated := "-"
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Key, e.Revision, e.Size, updated)
	}
	return tw.Flush()
}

func printDocument(ctx context.Context, a *app.App, role, username string, w io.Writer) error {
	r, ok := domain.ParseRole(role)
	if !ok {
		return fmt.Errorf("%w %q (want one of %s)", app.ErrUnknownRole, role, roleNames())
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("-user is required")
	}
	raw, stored, err := a.ReadDocumentJSON(ctx, r, ownerFor(ctx, a, username))
	if err != nil {
		return err
	}
	if !stored {
		a.Logger.Info("nothing stored, showing defaults", "key", a.DocumentKey(r, username))
	}
	return writeIndented(w, raw)
}

// ownerFor fills the registered profile of username so the administrator
// defaults match what the dashboard would show.
func ownerFor(ctx context.Context, a *app.App, username string) domain.Owner {
	owner := domain.Owner{Username: username}
	users, err := a.Sessions.ListUsers(ctx)
	if err != nil {
		return owner
	}
	for _, u := range users {
		if u.Username == username {
			return domain.Owner{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
		}
	}
	return owner
}

type userView struct {
	Username  string           `json:"username"`
	Role      domain.Role      `json:"role"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Email     string           `json:"email"`
	PatientID *string          `json:"patientId"`
	CreatedAt domain.Timestamp `json:"createdAt"`
}

func printUsers(ctx context.Context, a *app.App, w io.Writer) error {
	users, err := a.Sessions.ListUsers(ctx)
	if err != nil {
		return err
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			Username:  u.Username,
			Role:      u.Role,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			PatientID: u.PatientID,
			CreatedAt: u.CreatedAt,
		})
	}
	raw, err := json.Marshal(views)
	if err != nil {
		return err
	}
	return writeIndented(w, raw)
}

func printSession(ctx context.Context, a *app.App, w io.Writer) error {
	s, ok, err := a.Sessions.GetSession(ctx)
	if err != nil {
		return err
	}
	if !ok {
		_, err = fmt.Fprintln(w, "no active session")
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return writeIndented(w, raw)
}

func writeIndented(w io.Writer, raw []byte) error {
	var out strings.Builder
	enc := json.NewEncoder(&out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(json.RawMessage(raw)); err != nil {
		return err
	}
	_, err := io.WriteString(w, out.String())
	return err
}
