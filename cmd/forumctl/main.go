// Command forumctl is the operator CLI: it talks to a running forumd
// over its HTTP API and handles small local chores like sealing secrets
// for config files.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivemhub/forumd/internal/security/secretbox"
)

var (
	serverURL string
	token     string
)

func main() {
	root := &cobra.Command{
		Use:           "forumctl",
		Short:         "Operate a running forumd instance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("FORUMD_URL", "http://localhost:8080"), "forumd base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("FORUMD_TOKEN"), "credential for authenticated commands")

	root.AddCommand(healthCmd(), providersCmd(), loginCmd(), whoamiCmd(), logoutCmd(), sealCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "forumctl:", err)
		os.Exit(1)
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server and backing store health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/healthz", "")
		},
	}
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the identity providers accepted for login",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/api/auth/providers", "")
		},
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <provider>",
		Short: "Start a login attempt and print the authorization URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/api/auth/"+args[0], "")
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity bound to --token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/api/auth/me", token)
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the credential in --token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return post("/api/auth/logout", token)
		},
	}
}

func sealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seal <plaintext>",
		Short: "Encrypt a secret for use as an enc: config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sealed, err := secretbox.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Println("enc:" + sealed)
			return nil
		},
	}
}

func get(path, bearer string) error  { return call(http.MethodGet, path, bearer) }
func post(path, bearer string) error { return call(http.MethodPost, path, bearer) }

func call(method, path, bearer string) error {
	req, err := http.NewRequest(method, serverURL+path, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(prettyJSON(body))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server answered %s", resp.Status)
	}
	return nil
}

func prettyJSON(b []byte) string {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return string(b)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(b)
	}
	return string(out)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
