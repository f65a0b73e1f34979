package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/agendei/agendei/internal/adapter/postgres"
	"github.com/agendei/agendei/internal/config"
	"github.com/agendei/agendei/internal/domain/principal"
	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/domain/user"
	"github.com/agendei/agendei/internal/service"
)

// runAdmin dispatches operator subcommands. They use the privileged handle
// and never run inside the API server.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "migrate":
		return runAdminMigrate(args[1:])
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "create-admin":
		return runAdminCreateAdmin(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	case "enable-tenant":
		return runAdminSetEnabled(args[1:], true)
	case "disable-tenant":
		return runAdminSetEnabled(args[1:], false)
	case "verify-isolation":
		return runAdminVerifyIsolation(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: agendei admin <command> [options]

Commands:
  migrate            Apply pending migrations (--down N rolls back N steps)
  create-tenant      Register a new establishment
  create-admin       Create a staff account in a tenant
  list-tenants       List all tenants
  enable-tenant      Re-enable a tenant
  disable-tenant     Disable a tenant and its storefront
  verify-isolation   Count cross-tenant references (all must be 0)
  help               Show this help message

Examples:
  agendei admin migrate
  agendei admin create-tenant --name "Studio Ana" --slug studio-ana
  agendei admin create-admin --tenant studio-ana --email ana@studio.test --name Ana
  agendei admin verify-isolation
`)
}

type adminDeps struct {
	cfg     *config.Config
	priv    *postgres.Privileged
	tenants *service.TenantService
}

func loadAdminDeps(ctx context.Context) (*adminDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	priv := postgres.NewPrivileged(pool)
	return &adminDeps{
		cfg:     cfg,
		priv:    priv,
		tenants: service.NewTenantService(priv, cfg.Booking.GuestEmailDomain),
	}, pool.Close, nil
}

func runAdminMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	down := fs.Int("down", 0, "roll back this many migrations instead of applying")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()
	if *down > 0 {
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *down); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
	} else if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	version, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Schema at version %d\n", version)
	return nil
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "display name (required)")
	slug := fs.String("slug", "", "public storefront slug (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *slug == "" {
		return fmt.Errorf("--name and --slug are required")
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := deps.tenants.Create(ctx, tenant.CreateRequest{Name: *name, Slug: *slug})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s, slug=%s)\n", t.Name, t.ID, t.Slug)
	return nil
}

func runAdminCreateAdmin(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	slug := fs.String("tenant", "", "tenant slug (required)")
	email := fs.String("email", "", "email address (required)")
	name := fs.String("name", "", "display name (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	agent := fs.Bool("service-agent", false, "create a SERVICE_AGENT instead of an ADMIN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *slug == "" || *email == "" || *name == "" {
		return fmt.Errorf("--tenant, --email and --name are required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	role := principal.RoleAdmin
	if *agent {
		role = principal.RoleServiceAgent
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := deps.priv.TenantBySlug(ctx, *slug)
	if err != nil {
		return fmt.Errorf("tenant %q: %w", *slug, err)
	}
	u, err := deps.tenants.CreateUser(ctx, t.ID, user.CreateRequest{
		Email:    *email,
		Name:     *name,
		Password: pass,
		Role:     role,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "User created: %s (id=%s, role=%s, tenant=%s)\n", u.Email, u.ID, u.Role, t.Slug)
	return nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	tenants, err := deps.tenants.List(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSLUG\tNAME\tENABLED\tCREATED")
	for i := range tenants {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			tenants[i].ID, tenants[i].Slug, tenants[i].Name, tenants[i].Enabled, tenants[i].CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runAdminSetEnabled(args []string, enabled bool) error {
	fs := flag.NewFlagSet("set-enabled", flag.ContinueOnError)
	slug := fs.String("slug", "", "tenant slug (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *slug == "" {
		return fmt.Errorf("--slug is required")
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := deps.priv.TenantBySlug(ctx, *slug)
	if err != nil {
		return fmt.Errorf("tenant %q: %w", *slug, err)
	}
	if err := deps.tenants.SetEnabled(ctx, t.ID, enabled); err != nil {
		return err
	}
	// cached slug resolutions expire within the cache TTL
	fmt.Fprintf(os.Stderr, "Tenant %s enabled=%t (storefront caches expire within %s)\n", t.Slug, enabled, deps.cfg.Cache.L2TTL)
	return nil
}

func runAdminVerifyIsolation(args []string) error {
	fs := flag.NewFlagSet("verify-isolation", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	checks, err := deps.priv.VerifyIsolation(ctx)
	if err != nil {
		return fmt.Errorf("verify isolation: %w", err)
	}
	fmt.Print(postgres.FormatIsolation(checks))
	for _, c := range checks {
		if c.Violations > 0 {
			return fmt.Errorf("isolation violated: %s", c.Name)
		}
	}
	return nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
