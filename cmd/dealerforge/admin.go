package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/DealerForge/internal/config"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/secrets"
	"github.com/Strob0t/DealerForge/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-superadmin":
		return runAdminCreateSuperAdmin(args[1:])
	case "provision":
		return runAdminProvision(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	case "set-status":
		return runAdminSetStatus(args[1:])
	case "reset-password":
		return runAdminResetPassword(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: dealerforge admin <command> [options]

Commands:
  create-superadmin  Create a tenant-less super-admin account
  provision          Create a dealership and its admin user
  list-tenants       List all dealerships
  set-status         Activate or block a dealership
  reset-password     Reset a dealership admin's password
  help               Show this help message

Examples:
  dealerforge admin create-superadmin --username root
  dealerforge admin provision --name "Alpha Motors" --admin alpha
  dealerforge admin set-status --tenant <id> --status blocked
  dealerforge admin reset-password --tenant <id>
`)
}

type adminDeps struct {
	auth    *service.AuthService
	tenants *service.TenantService
}

func loadAdminDeps(ctx context.Context) (*adminDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.Driver == "memory" {
		return nil, nil, errors.New("admin commands need a persistent store (storage.driver=postgres)")
	}

	store, cleanup, err := openStore(ctx, cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	vault, err := secrets.NewVault(secretLoader(&cfg.Auth), secrets.KeyJWTSecret)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("secrets: %w", err)
	}
	tokens := service.NewTokenService(vault, cfg.Auth.TokenTTL)
	authSvc := service.NewAuthService(store, tokens, &cfg.Auth)
	// Running instances learn about status changes on their own through the
	// store; there is no gate to invalidate in this process.
	tenantSvc := service.NewTenantService(store, authSvc, nil, cfg.Auth.DefaultAdminPassword)
	return &adminDeps{auth: authSvc, tenants: tenantSvc}, cleanup, nil
}

// operatorContext acts as super-admin. Whoever can run the binary against
// the database already holds that authority.
func operatorContext() context.Context {
	return auth.WithRequestContext(context.Background(), &auth.RequestContext{
		UserID:    "cli",
		Username:  "cli",
		Role:      user.RoleSuperAdmin,
		Privilege: user.PrivilegeSuperAdmin,
	})
}

func runAdminCreateSuperAdmin(args []string) error {
	fs := flag.NewFlagSet("create-superadmin", flag.ContinueOnError)
	username := fs.String("username", "", "username (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("--username is required")
	}

	pass, err := passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	ctx := operatorContext()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	created, err := deps.auth.BootstrapSuperAdmin(ctx, *username, pass)
	if err != nil {
		return fmt.Errorf("create super-admin: %w", err)
	}
	if !created {
		return fmt.Errorf("username %q is already taken", *username)
	}
	fmt.Fprintf(os.Stderr, "Super-admin created: %s\n", *username)
	return nil
}

func runAdminProvision(args []string) error {
	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	name := fs.String("name", "", "dealership name (required)")
	admin := fs.String("admin", "", "admin username (required)")
	password := fs.String("password", "", "admin password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *admin == "" {
		return errors.New("--name and --admin are required")
	}

	pass, err := passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	ctx := operatorContext()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sum, err := deps.tenants.Provision(ctx, &tenant.CreateRequest{Name: *name, AdminUsername: *admin, AdminPassword: pass})
	if err != nil {
		return fmt.Errorf("provision: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Dealership created: %s (id=%s, admin=%s)\n", sum.Name, sum.ID, sum.AdminUsername)
	return nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := operatorContext()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := deps.tenants.List(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No dealerships found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATUS\tADMIN\tCREATED")
	for i := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			list[i].ID, list[i].Name, list[i].Status, list[i].AdminUsername, list[i].CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runAdminSetStatus(args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ContinueOnError)
	id := fs.String("tenant", "", "tenant id (required)")
	status := fs.String("status", "", "active or blocked (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *status == "" {
		return errors.New("--tenant and --status are required")
	}

	ctx := operatorContext()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := deps.tenants.SetStatus(ctx, *id, tenant.Status(*status))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Dealership %s is now %s\n", t.Name, t.Status)
	return nil
}

func runAdminResetPassword(args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	id := fs.String("tenant", "", "tenant id (required)")
	password := fs.String("password", "", "new password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("--tenant is required")
	}

	pass, err := passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	ctx := operatorContext()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := deps.tenants.ResetAdminPassword(ctx, *id, &tenant.ResetPasswordRequest{NewPassword: pass}); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Password reset successfully")
	return nil
}

// passwordOrPrompt returns flagValue, or asks twice on the terminal.
func passwordOrPrompt(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	pass, err := promptPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pass != confirm {
		return "", errors.New("passwords do not match")
	}
	return pass, nil
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
