package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/scorewire/scorewire-go/token"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "authenticate and store a session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "tenant",
				Usage: "tenant type (user|customer|direct)",
				Value: string(token.TenantUser),
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "password (prompted interactively when omitted)",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "API key for direct login",
			},
			&cli.StringFlag{
				Name:  "api-secret",
				Usage: "API secret for direct login",
			},
		},
		Action: loginAction,
	}
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	_, client, err := setup(cmd)
	if err != nil {
		return err
	}

	tenant := token.TenantType(cmd.String("tenant"))
	if !tenant.Valid() {
		return fmt.Errorf("unknown tenant type: %s", tenant)
	}

	if tenant == token.TenantDirect {
		session, err := client.LoginDirect(ctx, cmd.String("api-key"), cmd.String("api-secret"))
		if err != nil {
			return err
		}
		name := ""
		if session.Integration != nil {
			name = session.Integration.Name
		}
		fmt.Printf("logged in as integration %q\n", name)
		return nil
	}

	username := cmd.String("username")
	if username == "" {
		return fmt.Errorf("--username is required for %s login", tenant)
	}
	password, err := resolvePassword(cmd)
	if err != nil {
		return err
	}

	switch tenant {
	case token.TenantCustomer:
		if _, err := client.LoginCustomer(ctx, username, password); err != nil {
			return err
		}
	default:
		if _, err := client.LoginUser(ctx, username, password); err != nil {
			return err
		}
	}

	fmt.Printf("logged in as %s (%s)\n", username, tenant)
	return nil
}

// resolvePassword returns the --password flag value, or prompts on the
// terminal without echo when the flag is omitted.
func resolvePassword(cmd *cli.Command) (string, error) {
	if password := cmd.String("password"); password != "" {
		return password, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "exchange the stored refresh token for a new session",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := client.Refresh(ctx); err != nil {
				return err
			}
			fmt.Println("session refreshed")
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "discard the stored session",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := client.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show the stored session state",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}

			record := client.Tokens().Tokens(ctx)
			if record == nil || record.AccessToken == "" {
				fmt.Println("not authenticated")
				return nil
			}

			fmt.Printf("tenant:  %s\n", record.TenantType)
			if remaining := time.Until(record.ExpiresAt()); remaining > 0 {
				fmt.Printf("expires: in %s\n", remaining.Round(time.Second))
			} else {
				fmt.Println("expires: stale (will refresh on next call)")
			}
			return nil
		},
	}
}
