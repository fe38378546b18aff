package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/oksasatya/hazard-reporting/pkg/client"
)

const defaultAPI = "http://localhost:8080"

var errUsage = errors.New("usage: hazardctl [-api URL] [-dir DIR] <login|otp-request|otp-verify|logout|whoami|submit|list|status> [flags]")

// App is the hazardctl command set. Streams and the password reader are fields so tests can drive it.
type App struct {
	Out          io.Writer
	In           io.Reader
	Logger       *logrus.Logger
	ReadPassword func() (string, error)
	Now          func() time.Time
}

func readTerminalPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (a *App) Run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("hazardctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	api := global.String("api", envOr("HAZARD_API_URL", defaultAPI), "API base URL")
	dir := global.String("dir", client.DefaultDir(), "session directory")
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}

	c := client.New(*api, client.NewSessionStore(*dir, a.Logger))
	cmd, cmdArgs := rest[0], rest[1:]

	switch cmd {
	case "login":
		return a.login(ctx, c, cmdArgs)
	case "otp-request":
		return a.otpRequest(ctx, c, cmdArgs)
	case "otp-verify":
		return a.otpVerify(ctx, c, cmdArgs)
	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.Out, "logged out")
		return nil
	case "whoami":
		return a.whoami(c)
	case "submit":
		return a.submit(ctx, c, cmdArgs)
	case "list":
		return a.list(ctx, c)
	case "status":
		return a.status(ctx, c, cmdArgs)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (a *App) login(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("login: -email is required")
	}
	if *password == "" && a.ReadPassword != nil {
		p, err := a.ReadPassword()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		*password = p
	}
	sess, err := c.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "logged in as %s (%s)\n", sess.Email, sess.Role)
	return nil
}

func (a *App) otpRequest(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("otp-request", flag.ContinueOnError)
	phone := fs.String("phone", "", "phone number in E.164 form")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.RequestOTP(ctx, *phone); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "code sent to %s\n", *phone)
	return nil
}

func (a *App) otpVerify(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("otp-verify", flag.ContinueOnError)
	phone := fs.String("phone", "", "phone number in E.164 form")
	code := fs.String("code", "", "code received by SMS (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		line, err := bufio.NewReader(a.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*code = strings.TrimSpace(line)
	}
	sess, err := c.VerifyOTP(ctx, *phone, *code)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "logged in as %s (%s)\n", sess.Phone, sess.Role)
	return nil
}

func (a *App) whoami(c *client.Client) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	state := "valid"
	if sess.Expired(now) {
		state = "expired"
	}
	fmt.Fprintf(a.Out, "%s\t%s\t%s\t%s until %s\n", sess.ID, sess.Email, sess.Role, state, sess.ExpiresAt.Format(time.RFC3339))
	return nil
}

func (a *App) submit(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	desc := fs.String("description", "", "what is happening")
	urgency := fs.String("urgency", "Moderate", "Low, Moderate or High")
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	image := fs.String("image-url", "", "optional image URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := client.SubmitReportInput{Description: *desc, Urgency: *urgency, ImageURL: *image}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			in.Latitude = lat
		case "lon":
			in.Longitude = lon
		}
	})
	id, err := c.SubmitReport(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, id)
	return nil
}

func (a *App) list(ctx context.Context, c *client.Client) error {
	items, err := c.ListReports(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tURGENCY\tCREATED\tDESCRIPTION")
	for _, r := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Status, r.Urgency, r.CreatedAt.Format(time.RFC3339), r.Description)
	}
	return w.Flush()
}

func (a *App) status(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	id := fs.String("id", "", "report id")
	to := fs.String("to", "", "New, InProgress or Resolved")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *to == "" {
		return errors.New("status: -id and -to are required")
	}
	r, err := c.UpdateStatus(ctx, *id, *to)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s\t%s\n", r.ID, r.Status)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
