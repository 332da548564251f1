package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/naveenspark/backoffice/internal/session"
	"github.com/naveenspark/backoffice/internal/token"
	"github.com/naveenspark/backoffice/internal/tui"
	"github.com/naveenspark/backoffice/pkg/client"
	"github.com/naveenspark/backoffice/pkg/domain"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "backoffice",
		Short: "Admin console for the backoffice API",
		Long: `backoffice signs you in to the admin API, keeps the session on disk
and shows only the menu entries and pages your role and permissions allow.

Run without arguments to open the interactive console.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd.Context(), cfgPath)
		},
	}
	root.SetVersionTemplate("backoffice {{.Version}}\n")
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.backoffice/config.yaml)")

	root.AddCommand(
		newLoginCmd(&cfgPath),
		newLogoutCmd(&cfgPath),
		newWhoamiCmd(&cfgPath),
		newNavCmd(&cfgPath),
		newCompanyCmd(&cfgPath),
		newRouteCmd(&cfgPath),
		newVersionCmd(),
	)
	return root
}

// withConsole opens the core for the duration of fn.
func withConsole(cmd *cobra.Command, cfgPath string, fn func(ctx context.Context, c *console) error) error {
	ctx := cmd.Context()
	c, err := openConsole(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func runConsole(ctx context.Context, cfgPath string) error {
	c, err := openConsole(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer c.Close()

	app := tui.NewApp(tui.Deps{
		Session:     c.session,
		Router:      c.router,
		Menu:        c.menu,
		Permissions: c.perms,
		Logger:      c.logger,
		WebURL:      c.cfg.API.WebURL,
		LoginPath:   c.cfg.Router.LoginPath,
		LandingPath: c.cfg.Router.LandingPath,
		Version:     version,
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func newLoginCmd(cfgPath *string) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in to the admin API. Missing credentials are prompted for.

Examples:
  backoffice login
  backoffice login --email admin@example.com --password secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || password == "" {
				if err := promptCredentials(&email, &password); err != nil {
					return err
				}
			}
			return withConsole(cmd, *cfgPath, func(ctx context.Context, c *console) error {
				creds := domain.Credentials{Email: strings.TrimSpace(email), Password: password}
				if _, err := c.session.LogIn(ctx, creds); err != nil {
					printFieldErrors(cmd.ErrOrStderr(), err)
					return fmt.Errorf("login failed: %w", err)
				}
				printIdentity(cmd.OutOrStdout(), c.session.Snapshot())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

// promptCredentials asks for whichever of email and password is empty.
func promptCredentials(email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(email).
			Validate(required("email")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(required("password")))
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// printFieldErrors lists per-field validation messages in field order.
func printFieldErrors(w io.Writer, err error) {
	fields := client.FieldErrors(err)
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		for _, msg := range fields[name] {
			fmt.Fprintf(w, "  %s: %s\n", name, msg)
		}
	}
}

func newLogoutCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, *cfgPath, func(ctx context.Context, c *console) error {
				c.session.LogOut(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show user, role and company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, *cfgPath, func(ctx context.Context, c *console) error {
				if err := c.verify(ctx); err != nil {
					if errors.Is(err, errSignedOut) {
						printSignedOut(cmd.OutOrStdout())
						return nil
					}
					return err
				}
				s := c.session.Snapshot()
				printIdentity(cmd.OutOrStdout(), s)
				if s.User != nil {
					printMedia(cmd.OutOrStdout(), c.cfg.UI, "avatar", s.User.Profile, "avatar")
				}
				if s.Company != nil {
					printMedia(cmd.OutOrStdout(), c.cfg.UI, "logo", s.Company.Profile, "logo")
				}
				if c.perms.IsPrivileged() {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", labelStyle.Render(fmt.Sprintf("%-8s", "access")), okStyle.Render("every permission (admin role)"))
				}
				printToken(cmd.OutOrStdout(), s.Token, time.Now())
				return nil
			})
		},
	}
}

func newNavCmd(cfgPath *string) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "nav",
		Short: "Print the menu you can see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, *cfgPath, func(ctx context.Context, c *console) error {
				if all {
					printMenu(cmd.OutOrStdout(), c.menu.Tree())
					return nil
				}
				if err := c.verify(ctx); err != nil {
					return err
				}
				printMenu(cmd.OutOrStdout(), c.menu.Items())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print the whole tree without filtering")
	return cmd
}

func newCompanyCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "List or switch companies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "List your companies",
		Long: `List the companies you belong to, ui.rows_per_page at a time.

Examples:
  backoffice company list
  backoffice company list --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, *cfgPath, func(ctx context.Context, c *console) error {
				if err := c.verify(ctx); err != nil {
					return err
				}
				return printCompanies(cmd.OutOrStdout(), c.session.User(), c.session.CompanyID(), page, c.cfg.UI.RowsPerPage)
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page to show")

	use := &cobra.Command{
		Use:   "use ID",
		Short: "Switch the active company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConsole(cmd, *cfgPath, func(ctx context.Context, c *console) error {
				if err := c.verify(ctx); err != nil {
					return err
				}
				company, ok := findCompany(c.session.User(), args[0])
				if !ok {
					return fmt.Errorf("company %s: %w", args[0], session.ErrUnknownCompany)
				}
				if err := c.session.SetCompany(ctx, company); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Active company: %s\n", companyLabel(&company))
				return nil
			})
		},
	}

	cmd.AddCommand(list, use)
	return cmd
}

func findCompany(u *domain.User, id string) (domain.Company, bool) {
	if u == nil {
		return domain.Company{}, false
	}
	for _, c := range u.Companies {
		if c.ID.String() == id {
			return c, true
		}
	}
	return domain.Company{}, false
}

func newRouteCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "route PATH",
		Short: "Check access to a route",
		Long: `Navigate to PATH through the route guard and print where it lands.

Examples:
  backoffice route /users
  backoffice route /schools/edit/12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConsole(cmd, *cfgPath, func(ctx context.Context, c *console) error {
				requested, err := c.router.Resolve(args[0])
				if err != nil {
					return err
				}
				landed, err := c.router.Push(ctx, args[0])
				if err != nil {
					return err
				}
				printRouteResult(cmd.OutOrStdout(), requested, landed)
				return nil
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "backoffice "+version)
		},
	}
}

// printToken shows the masked token and, for JWTs, its expiry.
func printToken(w io.Writer, raw string, now time.Time) {
	line := token.Mask(raw)
	if info, err := token.Inspect(raw); err == nil && !info.ExpiresAt.IsZero() {
		line += "  " + formatExpiry(info.Remaining(now))
	}
	fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render(fmt.Sprintf("%-8s", "token")), line)
}

func formatExpiry(d time.Duration) string {
	switch {
	case d <= 0:
		return "expired"
	case d < time.Hour:
		return fmt.Sprintf("expires in %dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("expires in %dh", int(d.Hours()))
	default:
		return fmt.Sprintf("expires in %dd", int(d.Hours()/24))
	}
}
