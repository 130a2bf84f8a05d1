package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"reuploader/pkg/config"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Long:  `Check for yt-dlp, create the download directory and write a .env file.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("Reuploader Setup"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func(*config.Config) error
	}{
		{"Checking tools", checkTools},
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(cfg); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return offerAuth(cmd, cfg)
}

func checkTools(cfg *config.Config) error {
	if !commandExists(cfg.Download.Executable) {
		fmt.Println(warnStyle.Render(cfg.Download.Executable + " not found - install from https://github.com/yt-dlp/yt-dlp#installation"))
		return nil
	}

	var version string
	err := runWithSpinner("Checking yt-dlp", func() error {
		out, err := runSetupCmd(cfg.Download.Executable, "--version")
		version = strings.TrimSpace(out)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("  yt-dlp " + version))
	return nil
}

func createDirectories(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Download.OutputDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", cfg.Download.OutputDir, err)
	}
	fmt.Println(successStyle.Render("✓ Created " + cfg.Download.OutputDir + "/"))
	return nil
}

func configureEnv(cfg *config.Config) error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	fmt.Println(infoStyle.Render(`
To create OAuth credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "OAuth client ID"
3. Choose "Desktop app" as application type
4. Download the JSON file
`))

	secretsPath := cfg.ClientSecretsPath
	project := cfg.GCPProject
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Client secrets file").
				Value(&secretsPath).
				Validate(fileExists),
			huh.NewInput().
				Title("Google Cloud project (optional)").
				Description("Used for Secret Manager and Cloud Storage credential sources").
				Value(&project),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env := map[string]string{
		"YOUTUBE_CLIENT_SECRETS": strings.TrimSpace(secretsPath),
		"GOOGLE_CLOUD_PROJECT":   strings.TrimSpace(project),
	}
	cfg.ClientSecretsPath = env["YOUTUBE_CLIENT_SECRETS"]
	cfg.GCPProject = env["GOOGLE_CLOUD_PROJECT"]

	return writeEnvFile(env)
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"YOUTUBE_CLIENT_SECRETS",
		"GOOGLE_CLOUD_PROJECT",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	return nil
}

func offerAuth(cmd *cobra.Command, cfg *config.Config) error {
	var authenticate bool
	if err := huh.NewConfirm().
		Title("Authorize YouTube uploads now?").
		Description("Opens browser to complete OAuth flow").
		Value(&authenticate).
		Run(); err != nil {
		return err
	}

	if authenticate {
		if err := authorizeYouTube(cmd, cfg, ""); err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("OAuth flow failed: %v", err)))
			fmt.Println(infoStyle.Render("You can retry later with: reuploader auth youtube"))
		}
	}

	printNextSteps(cfg)
	return nil
}

func printNextSteps(cfg *config.Config) {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Add one video URL per line to: " + cfg.Batch.URLsFile)
	fmt.Println("  2. Run: reuploader upload")
}

func fileExists(path string) error {
	if _, err := os.Stat(strings.TrimSpace(path)); err != nil {
		return fmt.Errorf("%s not found", path)
	}
	return nil
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
