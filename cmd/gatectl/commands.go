package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/17marcomoreira-hue/sportswissapp/internal/access"
	"github.com/17marcomoreira-hue/sportswissapp/internal/client"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
	"github.com/17marcomoreira-hue/sportswissapp/internal/offline"
)

var (
	errNotSignedIn  = errors.New("not signed in, run 'gatectl login' first")
	errAccessDenied = errors.New("access denied")
)

func newRegisterCmd(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := opts.client().Register(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s created, check %s for the verification link\n", uid, email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			res, err := opts.client().Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err = store.Set(offline.KeyToken, res.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", res.Email, res.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			if err = store.Delete(offline.KeyToken); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check access, falling back to the offline record when the server is unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			token, err := store.Token()
			if err != nil {
				return err
			}
			if token == "" {
				return errNotSignedIn
			}
			deviceID, err := store.DeviceID()
			if err != nil {
				return fmt.Errorf("device id: %w", err)
			}

			out := cmd.OutOrStdout()
			res, err := opts.client().Check(cmd.Context(), token, deviceID)
			switch {
			case err == nil:
				return printOnline(out, store, res)
			case client.Unreachable(err):
				fmt.Fprintf(out, "Server unreachable: %v\n", err)
				return checkOffline(out, store)
			default:
				return fmt.Errorf("check: %w", err)
			}
		},
	}
}

func printOnline(out io.Writer, store *offline.Store, res *models.GateResult) error {
	if res.OfflineCache != nil {
		if err := store.SaveAccessCache(*res.OfflineCache); err != nil {
			return fmt.Errorf("save offline record: %w", err)
		}
	}
	if res.Device.Replaced {
		fmt.Fprintln(out, "This device is now the active device for the account")
	}
	printAccess(out, res.Access)
	if !res.Access.Allowed {
		return errAccessDenied
	}
	return nil
}

func checkOffline(out io.Writer, store *offline.Store) error {
	cache, err := store.AccessCache()
	if err != nil {
		return err
	}
	dec := access.Offline(cache, now(), access.DefaultOfflineGrace)
	if !dec.Allowed {
		fmt.Fprintf(out, "Offline access refused: %s\n", dec.Reason)
		return errAccessDenied
	}
	printAccess(out, access.Describe(models.Access{Allowed: true, Mode: access.ModeLicenseOffline}))
	return nil
}

func printAccess(out io.Writer, a models.Access) {
	fmt.Fprintf(out, "Mode:    %s\n", a.Mode)
	fmt.Fprintf(out, "Allowed: %t\n", a.Allowed)
	fmt.Fprintf(out, "Status:  %s\n", a.StatusText)
}

func newActivateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <key>",
		Short: "Activate a license key for the signed-in account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			token, err := store.Token()
			if err != nil {
				return err
			}
			if token == "" {
				return errNotSignedIn
			}
			act, err := opts.client().Activate(cmd.Context(), token, args[0])
			if err != nil {
				return fmt.Errorf("activate: %w", err)
			}
			if act.OfflineCache != nil {
				if err = store.SaveAccessCache(*act.OfflineCache); err != nil {
					return fmt.Errorf("save offline record: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "License %s active until %s\n",
				act.Key, act.ExpiresAt.Local().Format("2006-01-02"))
			return nil
		},
	}
}

func newDeviceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "device",
		Short: "Print the identifier of this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			id, err := store.DeviceID()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
