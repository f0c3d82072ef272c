package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/session"
	"github.com/felixgeelhaar/gemora/internal/shell"
	"github.com/felixgeelhaar/gemora/internal/tui"
)

const envPassword = "GEMORA_PASSWORD"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in, register and manage the stored session",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in to the Gemora backend. On success the token and role are
stored and you land on the dashboard for your role.

The password is read from --password, then $GEMORA_PASSWORD, then an
interactive prompt when stdin is a terminal.

Examples:
  gemora auth login --email admin@gemora.lk
  GEMORA_PASSWORD=secret gemora auth login --email user@gemora.lk`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `Register a new seller account. Identity images are optional and must be
images of at most 5MB.

Examples:
  gemora auth register --interactive
  gemora auth register --name "Nimal Perera" --email nimal@example.com \
    --contact 0771234567 --password secret1 --confirm-password secret1 \
    --id-front front.jpg --id-back back.jpg --selfie me.png`,
	Args: cobra.NoArgs,
	RunE: runAuthRegister,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	Long: `Show whether a session is stored and for which role. With --verify the
token is checked against the backend; a rejected token is cleared.`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

var (
	loginEmail    string
	loginPassword string

	registerAnswers     tui.RegisterAnswers
	registerInteractive bool

	statusVerify bool
)

func init() {
	authLoginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	authLoginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prefer $GEMORA_PASSWORD or the prompt)")

	f := authRegisterCmd.Flags()
	f.StringVar(&registerAnswers.Name, "name", "", "full name")
	f.StringVar(&registerAnswers.Email, "email", "", "email address")
	f.StringVar(&registerAnswers.ContactNumber, "contact", "", "10 digit contact number")
	f.StringVar(&registerAnswers.Password, "password", "", "password, at least 6 characters")
	f.StringVar(&registerAnswers.ConfirmPassword, "confirm-password", "", "password again")
	f.StringVar(&registerAnswers.IDFrontPath, "id-front", "", "image of the front of your ID")
	f.StringVar(&registerAnswers.IDBackPath, "id-back", "", "image of the back of your ID")
	f.StringVar(&registerAnswers.SelfiePath, "selfie", "", "selfie image")
	f.BoolVarP(&registerInteractive, "interactive", "i", false, "fill in the form interactively")

	authStatusCmd.Flags().BoolVar(&statusVerify, "verify", false, "check the token against the backend")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

type signedIn struct {
	Role  session.Role `json:"role" yaml:"role"`
	Home  string       `json:"home" yaml:"home"`
	Email string       `json:"email,omitempty" yaml:"email,omitempty"`
}

func (s signedIn) String() string {
	return fmt.Sprintf("✓ Signed in as %s\n  Home: %s", s.Role, s.Home)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	email := loginEmail
	if email == "" && tui.ShouldPrompt() {
		email, err = tui.Ask(tui.Prompt{Title: "Email", Placeholder: "you@example.com"})
		if err != nil {
			return err
		}
	}

	password := loginPassword
	if password == "" {
		password = os.Getenv(envPassword)
	}
	if password == "" && email != "" && tui.ShouldPrompt() {
		password, err = tui.AskSecret("Password")
		if err != nil {
			return err
		}
	}

	result, err := e.auth.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	out := signedIn{Role: result.Role, Home: e.app.Location(), Email: email}
	return e.emit(out, nil)
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	if registerInteractive {
		if !tui.ShouldPrompt() {
			return fmt.Errorf("--interactive requires a terminal")
		}
		if err := tui.RunRegisterWizard(&registerAnswers); err != nil {
			return err
		}
	}

	form, err := registerAnswers.Form()
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathRegister); err != nil {
		return err
	}
	result, err := e.auth.Register(cmd.Context(), form)
	if err != nil {
		return err
	}
	e.status("✓ Account created")
	return e.emit(signedIn{Role: result.Role, Home: e.app.Location(), Email: form.Email}, nil)
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	wasSignedIn := e.store.IsAuthenticated()
	if err := e.auth.Logout(); err != nil {
		return err
	}
	if wasSignedIn {
		e.status("✓ Logged out")
	} else {
		e.status("Not logged in")
	}
	return nil
}

type sessionStatus struct {
	Authenticated bool         `json:"authenticated" yaml:"authenticated"`
	Role          session.Role `json:"role,omitempty" yaml:"role,omitempty"`
	Home          string       `json:"home" yaml:"home"`
	Backend       string       `json:"backend" yaml:"backend"`
	Storage       string       `json:"storage" yaml:"storage"`
	StoragePath   string       `json:"storagePath,omitempty" yaml:"storagePath,omitempty"`
	Verified      *bool        `json:"verified,omitempty" yaml:"verified,omitempty"`
}

func (s sessionStatus) String() string {
	state := "not logged in"
	if s.Authenticated {
		state = "logged in as " + string(s.Role)
	}
	out := fmt.Sprintf("Session: %s\nHome:    %s\nBackend: %s\nStorage: %s", state, s.Home, s.Backend, s.Storage)
	if s.StoragePath != "" {
		out += " (" + s.StoragePath + ")"
	}
	if s.Verified != nil {
		out += fmt.Sprintf("\nToken accepted: %t", *s.Verified)
	}
	return out
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	st := sessionStatus{
		Backend: e.client.BaseURL(),
		Storage: e.settings.StorageBackend,
	}
	if st.Storage != session.BackendMemory {
		st.StoragePath = e.settings.StoragePath
	}

	if statusVerify && e.store.IsAuthenticated() {
		_, verr := e.portal.Profile.Get(cmd.Context())
		accepted := verr == nil
		st.Verified = &accepted
		if verr != nil && !e.app.Invalidated() {
			return verr
		}
	}

	current := e.store.Current()
	st.Authenticated = current.Valid()
	st.Role = current.Role
	st.Home = e.app.Location()

	return e.emit(st, nil)
}
