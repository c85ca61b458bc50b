// Command ytapi is a thin demonstration CLI over the library: it drives
// the device-flow login and issues resource-client queries, the way
// feedmix's cmd/feedmix/main.go drives its own oauth/display packages.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lvcoi/ytapi-go/internal/apierr"
	"github.com/lvcoi/ytapi-go/internal/auth"
	"github.com/lvcoi/ytapi-go/internal/config"
	"github.com/lvcoi/ytapi-go/internal/jsonvalue"
	"github.com/lvcoi/ytapi-go/internal/transport"
	"github.com/lvcoi/ytapi-go/internal/youtube"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "ytapi",
		Short:   "A YouTube Data API v3 client",
		Long:    "ytapi drives the device-flow OAuth login and issues YouTube Data API v3 resource queries.",
		Version: version,
	}
	root.SetVersionTemplate("ytapi version {{.Version}}\n")
	root.AddCommand(newDeviceLoginCmd())
	root.AddCommand(newGetCmd())
	return root
}

func newDeviceLoginCmd() *cobra.Command {
	var scopes string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "device-login",
		Short: "Authorize ytapi against your Google account via the device flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := config.Load()
			if err != nil {
				return err
			}
			if err := creds.RequireClient(); err != nil {
				return err
			}

			client := transport.NewClient(30 * time.Second)
			pipeline := auth.New(client, creds.ClientID, creds.ClientSecret)

			ctx, cancel := pollWithTimeout(context.Background(), timeout)
			defer cancel()

			scopeList := splitScopes(scopes)
			result, err := runDeviceLogin(ctx, pipeline, scopeList)
			if err != nil {
				log.Printf("device login failed: %v", err)
				return err
			}

			accessToken := result.Get("access_token").MustString()
			refreshToken := result.Get("refresh_token").MustString()
			fmt.Fprintln(cmd.OutOrStdout(), "Authorized. Export these before running other commands:")
			fmt.Fprintf(cmd.OutOrStdout(), "  export YTAPI_ACCESS_TOKEN=%s\n", accessToken)
			if refreshToken != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  export YTAPI_REFRESH_TOKEN=%s\n", refreshToken)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scopes, "scopes", auth.ScopeReadOnly, "comma-separated OAuth scopes to request")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "how long to wait for the user to authorize before giving up")
	return cmd
}

func newGetCmd() *cobra.Command {
	var part string
	var filters map[string]string

	cmd := &cobra.Command{
		Use:   "get <resource>",
		Short: "List a YouTube Data API v3 resource (e.g. videos, channels, playlists)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := config.Load()
			if err != nil {
				return err
			}

			client := transport.NewClient(30 * time.Second)
			ytClient := &youtube.Client{
				HTTPClient:   client,
				APIKey:       creds.APIKey,
				ClientID:     creds.ClientID,
				ClientSecret: creds.ClientSecret,
				AccessToken:  creds.AccessToken,
				RefreshToken: creds.RefreshToken,
			}
			resources := youtube.NewResourcesClient(ytClient)

			values := map[string]interface{}{}
			for k, v := range filters {
				values[k] = v
			}

			ctx := context.Background()
			result, err := resources.List(ctx, args[0], splitScopes(part), values, nil)
			if err != nil {
				return fmt.Errorf("%s: %w", apierr.CategoryOf(err), err)
			}

			encoded, err := jsonvalue.Encode(result)
			if err != nil {
				return err
			}
			var pretty interface{}
			if err := json.Unmarshal(encoded, &pretty); err == nil {
				if indented, err := json.MarshalIndent(pretty, "", "  "); err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), string(indented))
					return nil
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&part, "part", "snippet", "comma-separated part list")
	cmd.Flags().StringToStringVar(&filters, "filter", nil, "filter=value pairs (repeatable), e.g. --filter mine=true")
	return cmd
}

func splitScopes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
