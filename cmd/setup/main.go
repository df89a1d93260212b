package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gcsmedia/backend/internal/app"
	"gcsmedia/backend/internal/database"
	"gcsmedia/backend/internal/models"
	"gcsmedia/backend/pkg/config"
	phxlog "gcsmedia/backend/pkg/log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gorm.io/gorm"
)

type setupOptions struct {
	name         string
	email        string
	password     string
	skipActivate bool

	in  io.Reader
	out io.Writer
}

func newSetupCommand() *cobra.Command {
	o := &setupOptions{in: os.Stdin, out: os.Stdout}
	cmd := &cobra.Command{
		Use:           "gcsmedia-setup",
		Short:         "Migrate the database, create the first admin and activate the GCS plugin",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&o.name, "name", "", "admin display name")
	cmd.Flags().StringVar(&o.email, "email", "", "admin email (prompted when empty)")
	cmd.Flags().StringVar(&o.password, "password", "", "admin password (prompted when empty)")
	cmd.Flags().BoolVar(&o.skipActivate, "skip-activate", false, "do not fire gcs_activation")
	return cmd
}

func (o *setupOptions) readInput(reader *bufio.Reader, prompt string) string {
	fmt.Fprint(o.out, prompt)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func (o *setupOptions) readPassword(reader *bufio.Reader, prompt string) (string, error) {
	if f, ok := o.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(o.out, prompt)
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(o.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytePassword)), nil
	}
	return o.readInput(reader, prompt), nil
}

func (o *setupOptions) complete() error {
	reader := bufio.NewReader(o.in)
	if o.email == "" {
		o.email = o.readInput(reader, "Enter Admin User Email: ")
	}
	if o.name == "" {
		o.name = o.readInput(reader, "Enter Admin User Name: ")
	}
	if o.password == "" {
		password, err := o.readPassword(reader, "Enter Admin User Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		o.password = password
	}
	if o.email == "" || o.password == "" {
		return fmt.Errorf("admin email and password are required")
	}
	if o.name == "" {
		o.name = o.email
	}
	return nil
}

func (o *setupOptions) run(ctx context.Context) error {
	cfg := config.Cfg
	phxlog.Init(cfg.LogLevel, cfg.Environment, phxlog.FileOptions{Path: cfg.LogFile, MaxSizeMB: cfg.LogMaxSizeMB})
	defer phxlog.Sync()

	fmt.Fprintln(o.out, "--- GCS Media Setup ---")
	db, err := database.ConnectDB(cfg)
	if err != nil {
		return err
	}
	if err := database.MigrateDB(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	fmt.Fprintln(o.out, "Database migrations completed successfully.")

	if err := o.complete(); err != nil {
		return err
	}
	if err := createAdmin(ctx, db, o.name, o.email, o.password); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "Admin user '%s' is ready.\n", o.email)

	if o.skipActivate {
		return nil
	}

	store, closeStore, err := app.NewStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	a := app.New(cfg, store)
	if err := a.Plugin.Activate(ctx); err != nil {
		return fmt.Errorf("plugin activation failed: %w", err)
	}
	fmt.Fprintln(o.out, "GCS plugin activated.")
	return nil
}

// createAdmin creates the admin user, or promotes and resets the password
// of an existing user with the same email.
func createAdmin(ctx context.Context, db *gorm.DB, name, email, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var user models.User
	err = db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		return db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
			"name":          name,
			"password_hash": string(hashedPassword),
			"role":          models.RoleAdmin,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Name: name, Email: email, PasswordHash: string(hashedPassword), Role: models.RoleAdmin}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("failed to look up admin user: %w", err)
	}
}

func main() {
	if err := newSetupCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
