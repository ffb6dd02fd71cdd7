package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hamed0406/staffbot/internal/config"
	apimw "github.com/hamed0406/staffbot/internal/httpapi/middleware"
	"github.com/hamed0406/staffbot/internal/whatsapp"
)

var apiBase string

var rootCmd = &cobra.Command{
	Use:           "staffbot",
	Short:         "Talk to a running staffbot API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var sendCmd = &cobra.Command{
	Use:   "send <phone> <text...>",
	Short: "Post a fake inbound WhatsApp message to /webhook",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSend,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the Meta webhook verification handshake",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Graph API token helpers",
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange META_WA_TOKEN for a fresh long-lived token",
	Args:  cobra.NoArgs,
	RunE:  runTokenRefresh,
}

func init() {
	_ = godotenv.Load()
	def := os.Getenv("API_BASE")
	if def == "" {
		def = "http://localhost:3000"
	}
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", def, "API base URL")
	sendCmd.Flags().String("name", "Сотрудник", "profile name of the sender")

	tokenCmd.AddCommand(tokenRefreshCmd)
	rootCmd.AddCommand(sendCmd, verifyCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	payload := whatsapp.NewTextPayload(args[0], name, strings.Join(args[1:], " "))
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, apiBase+"/webhook", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret := config.FromEnv().AppSecret; secret != "" {
		req.Header.Set(apimw.SignatureHeader, apimw.Sign(secret, body))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("API returned status: %s", resp.Status)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Delivered. Replies go out through the Graph API; check the API logs.")
	return nil
}

func runVerify(cmd *cobra.Command, _ []string) error {
	challenge := uuid.NewString()
	q := url.Values{}
	q.Set("hub.mode", "subscribe")
	q.Set("hub.verify_token", config.FromEnv().VerifyToken)
	q.Set("hub.challenge", challenge)

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, apiBase+"/webhook?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()
	got, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(got) != challenge {
		return fmt.Errorf("verification failed: %s", resp.Status)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✔ webhook verification passed")
	return nil
}

func runTokenRefresh(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if cfg.WAToken == "" || cfg.AppID == "" || cfg.AppSecret == "" {
		return fmt.Errorf("META_WA_TOKEN, META_APP_ID and META_APP_SECRET are required")
	}
	tok, err := whatsapp.NewClient(cfg.GraphURL, cfg.WAToken, cfg.PhoneNumberID).
		ExchangeToken(cmd.Context(), cfg.AppID, cfg.AppSecret)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
