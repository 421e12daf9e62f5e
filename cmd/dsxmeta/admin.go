package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/dsxmeta/internal/api/middleware"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/kiranshivaraju/dsxmeta/internal/store"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
	"github.com/spf13/cobra"
)

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Evict every cached parse result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := a.results.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached results\n", removed)
			return nil
		},
	}
}

// openStore connects to DATABASE_URL. The caller closes the returned pool.
func openStore(ctx context.Context) (*store.PostgresStore, func(), error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := store.Connect(ctx, config.DatabaseConfig{URL: dbURL, MaxOpenConns: 2})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return store.NewPostgresStore(pool), pool.Close, nil
}

func newKeysCreateCmd() *cobra.Command {
	var (
		name   string
		scopes string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for the default tenant",
		Long:  "Creates an API key for the default tenant. The raw key is printed once and cannot be recovered.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			ctx := cmd.Context()
			st, closeStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			tenant, err := st.GetDefaultTenant(ctx)
			if err != nil {
				return fmt.Errorf("load default tenant: %w", err)
			}

			raw, key, err := mw.NewAPIKey(tenant.ID, name, splitScopes(scopes))
			if err != nil {
				return err
			}
			if err := st.CreateAPIKey(ctx, key); err != nil {
				return fmt.Errorf("store api key: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created key %q (%s) with scopes %s\n",
				key.Name, key.KeyPrefix, strings.Join(key.Scopes, ","))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Key name")
	cmd.Flags().StringVar(&scopes, "scopes", models.ScopeRead+","+models.ScopeWrite, "Comma-separated scopes (read, write, admin)")
	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active API keys of the default tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, closeStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			tenant, err := st.GetDefaultTenant(ctx)
			if err != nil {
				return fmt.Errorf("load default tenant: %w", err)
			}
			keys, err := st.ListAPIKeys(ctx, tenant.ID)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tSCOPES\tLAST USED")
			for _, k := range keys {
				lastUsed := "never"
				if k.LastUsedAt != nil {
					lastUsed = k.LastUsedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					k.ID, k.Name, k.KeyPrefix, strings.Join(k.Scopes, ","), lastUsed)
			}
			return tw.Flush()
		},
	}
}

func newKeysRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key of the default tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("key id must be a UUID: %w", err)
			}
			ctx := cmd.Context()
			st, closeStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			tenant, err := st.GetDefaultTenant(ctx)
			if err != nil {
				return fmt.Errorf("load default tenant: %w", err)
			}
			if err := st.RevokeAPIKey(ctx, id, tenant.ID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no active key with id %s", id)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked key %s\n", id)
			return nil
		},
	}
}

func splitScopes(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
