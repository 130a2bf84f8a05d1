package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"reuploader/internal/auth"
	"reuploader/internal/storage"
	"reuploader/pkg/config"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	authInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	authSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	authErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var (
	authSecret string
	authForce  bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage YouTube credentials",
	Long:  `Obtain or inspect the OAuth credential bundle used for uploads.`,
}

var authYouTubeCmd = &cobra.Command{
	Use:   "youtube",
	Short: "Authorize YouTube uploads (OAuth)",
	Long: `Run the OAuth consent flow using the client secrets file, save the
credential bundle to the token file and print it as a single JSON line.`,
	RunE: runAuthYouTube,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check which credentials and tools are available",
	RunE:  runAuthStatus,
}

func init() {
	authYouTubeCmd.Flags().StringVar(&authSecret, "secret", "", "Also store the bundle as a new version of this Secret Manager secret (projects/P/secrets/S, or S with GOOGLE_CLOUD_PROJECT set)")
	authYouTubeCmd.Flags().BoolVarP(&authForce, "force", "f", false, "Overwrite an existing token file without asking")
	authCmd.AddCommand(authYouTubeCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println(authInfoStyle.Render("\nCredential Status:\n"))

	if _, err := os.Stat(cfg.ClientSecretsPath); err == nil {
		fmt.Println(authSuccessStyle.Render("✓ Client secrets: " + cfg.ClientSecretsPath))
	} else {
		fmt.Println(authErrorStyle.Render("✗ Client secrets: " + cfg.ClientSecretsPath + " not found"))
	}

	switch bundle, err := auth.LoadBundleFile(cfg.TokenPath); {
	case err == nil:
		fmt.Println(authSuccessStyle.Render(fmt.Sprintf("✓ Token file: %s (scopes: %v)", cfg.TokenPath, bundle.Scopes)))
	case errors.Is(err, auth.ErrNoCredentials):
		fmt.Println(authErrorStyle.Render("✗ Token file: " + cfg.TokenPath + " not found"))
		fmt.Println(authInfoStyle.Render("  Run: reuploader auth youtube"))
	default:
		fmt.Println(authErrorStyle.Render(fmt.Sprintf("✗ Token file: %v", err)))
	}

	if cfg.YouTubeToken != "" {
		fmt.Println(authSuccessStyle.Render("✓ YOUTUBE_TOKEN: set (" + describeTokenSource(cfg.YouTubeToken) + ")"))
	} else {
		fmt.Println(authInfoStyle.Render("○ YOUTUBE_TOKEN: not set, the token file is used"))
	}

	if cfg.GCPProject != "" {
		fmt.Println(authSuccessStyle.Render("✓ Google Cloud project: " + cfg.GCPProject))
	} else {
		fmt.Println(authInfoStyle.Render("○ Google Cloud project: not set (optional)"))
	}

	if path, err := exec.LookPath(cfg.Download.Executable); err == nil {
		fmt.Println(authSuccessStyle.Render("✓ yt-dlp: " + path))
	} else {
		fmt.Println(authErrorStyle.Render("✗ yt-dlp: " + cfg.Download.Executable + " not found on PATH"))
	}

	fmt.Println()
	return nil
}

func describeTokenSource(value string) string {
	switch {
	case auth.IsSecretName(value):
		return "Secret Manager"
	case storage.IsGCSURL(value):
		return "Cloud Storage"
	default:
		return "inline JSON"
	}
}

func runAuthYouTube(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	secret := authSecret
	if secret != "" {
		secret = auth.QualifySecretName(secret, cfg.GCPProject)
		if !auth.IsSecretName(secret) || strings.Contains(secret, "/versions/") {
			return fmt.Errorf("invalid secret name %q, expected projects/P/secrets/S or a secret id with GOOGLE_CLOUD_PROJECT set", authSecret)
		}
	}

	if _, err := os.Stat(cfg.TokenPath); err == nil && !authForce {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing " + cfg.TokenPath).
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(authInfoStyle.Render("Kept existing token file"))
			return nil
		}
	}

	return authorizeYouTube(cmd, cfg, secret)
}

func authorizeYouTube(cmd *cobra.Command, cfg *config.Config, secret string) error {
	ctx := cmd.Context()

	flow, err := auth.NewFlowFromSecretsFile(cfg.ClientSecretsPath, cfg.Auth.Port, cfg.Auth.Timeout)
	if err != nil {
		return err
	}

	flow.OpenURL = func(url string) error {
		fmt.Fprintln(os.Stderr, authInfoStyle.Render("\nOpening browser for YouTube authorization..."))
		fmt.Fprintln(os.Stderr, authInfoStyle.Render("If the browser doesn't open, visit:\n"+url))
		fmt.Fprintln(os.Stderr, authInfoStyle.Render("\nWaiting for authorization..."))
		return browser.OpenURL(url)
	}

	bundle, err := flow.Run(ctx)
	if err != nil {
		return err
	}

	if err := bundle.Save(cfg.TokenPath); err != nil {
		return err
	}

	line, err := bundle.JSON()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, authSuccessStyle.Render("✓ YouTube authorization complete"))
	fmt.Fprintln(os.Stderr, authSuccessStyle.Render("  Token saved to: "+cfg.TokenPath))
	fmt.Fprintln(os.Stderr, authInfoStyle.Render("  Set YOUTUBE_TOKEN to the line below to use it elsewhere:"))
	fmt.Println(line)

	if secret != "" {
		version, err := auth.PublishBundle(ctx, secret, bundle)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, authSuccessStyle.Render("✓ Stored as "+version))
	}

	return nil
}
