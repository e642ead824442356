package cli

import (
	"fmt"

	"shopcatalog/accounts"
	"shopcatalog/config"
	"shopcatalog/db"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// CreateSuperuserOptions holds flags for the createsuperuser command.
type CreateSuperuserOptions struct {
	*RootOptions
	Email    string
	Password string
}

// NewCreateSuperuserCommand creates the createsuperuser command.
func NewCreateSuperuserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateSuperuserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff user",
		Long: `Create a staff user able to manage categories, products and properties.

Example:
  shopcatalog createsuperuser --email admin@example.com --password s3cret`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateSuperuser(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "email of the new user (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password of the new user (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runCreateSuperuser(cmd *cobra.Command, opts *CreateSuperuserOptions) error {
	cfg := config.Load()
	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close(conn)

	var id uint
	if err := conn.Transaction(func(tx *gorm.DB) error {
		user, err := accounts.CreateSuperuser(tx, opts.Email, opts.Password)
		id = user.ID
		return err
	}); err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d)\n", opts.Email, id)
	return nil
}
