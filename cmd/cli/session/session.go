package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/campuslend/lendhub/cmd/cli/config"
	"github.com/campuslend/lendhub/cmd/cli/root"
	"github.com/spf13/cobra"
)

const tokenFileName = ".lendhub_token"

// ==========================
// CLI Command Init
// ==========================
func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage authentication",
		Long: `Login to the lendhub API.
Stores the session token locally for future commands.`,
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Login a staff user",
		Long:  "Login and save the session token locally for future CLI commands.",
		RunE:  runLogin,
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Logout current user",
		Long:  "Remove the locally saved session token.",
		RunE:  runLogout,
	}

	sessionCmd.AddCommand(loginCmd, logoutCmd)
	root.GetRoot().AddCommand(sessionCmd)
}

// ==========================
// Login
// ==========================
func runLogin(cmd *cobra.Command, args []string) error {
	var email, password string
	fmt.Print("Email: ")
	fmt.Scanln(&email)
	fmt.Print("Password: ")
	fmt.Scanln(&password)

	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(config.APIURL()+"/v1/auth/login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", string(b))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.Token == "" {
		return fmt.Errorf("token not returned by API")
	}

	if err := saveToken(result.Token); err != nil {
		return err
	}

	fmt.Println("Login successful! Session token saved locally.")
	return nil
}

// ==========================
// Logout
// ==========================
func runLogout(cmd *cobra.Command, args []string) error {
	path := tokenPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No user logged in.")
		return nil
	}

	if err := os.Remove(path); err != nil {
		return err
	}

	fmt.Println("Logged out successfully.")
	return nil
}

// ==========================
// Token Storage Helpers
// ==========================
func saveToken(token string) error {
	return os.WriteFile(tokenPath(), []byte(token), 0600)
}

// LoadToken reads the locally saved session token.
func LoadToken() (string, error) {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func tokenPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, tokenFileName)
}
