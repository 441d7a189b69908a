package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/models"
)

var (
	EmailLocator    = models.ByCSS(`input[name="email"]`)
	PasswordLocator = models.ByCSS(`input[name="password"]`)
	SubmitLocator   = models.ByCSS(`button[type="submit"]`)
)

// LoginCheckName is the record name for a role's login
func LoginCheckName(role string) string {
	return "login_" + role
}

// Login signs in as role and records login_<role>. Roles without credentials use
// the fallback role's credentials.
func (s *Suite) Login(ctx context.Context, role string) Verdict {
	cred, used := s.config.CredentialFor(role)
	if used != role {
		s.logger.Warn().Str("role", role).Str("fallback", used).Msg("No credentials for role, using fallback")
	}

	s.logger.Info().Str("role", role).Str("email", cred.Email).Msg("Testing login")

	return s.verifier.Verify(ctx, Verification{
		Name:        LoginCheckName(role),
		Shot:        "login_" + role,
		SuccessShot: "dashboard_" + role,
		Conclusive:  true,
		Act: func(ctx context.Context) error {
			if err := s.openLogin(ctx); err != nil {
				return err
			}
			if err := s.fill(ctx, EmailLocator, cred.Email, "Email field not found"); err != nil {
				return err
			}
			if err := s.fill(ctx, PasswordLocator, cred.Password, "Password field not found"); err != nil {
				return err
			}
			if _, err := s.page.Screenshot(ctx, "login_"+role+"_before"); err != nil {
				s.logger.Warn().Err(err).Str("role", role).Msg("Failed to capture pre-login screenshot")
			}
			return s.click(ctx, "Submit button not found", SubmitLocator)
		},
		Await: AwaitURL(s.config.Target.DashboardPattern, s.loginTimeout),
	})
}

// openLogin loads the frontend and moves to the login path unless already there
func (s *Suite) openLogin(ctx context.Context) error {
	frontend := s.config.Target.FrontendURL
	if err := s.page.Navigate(ctx, frontend); err != nil {
		return fmt.Errorf("failed to open %s: %w", frontend, err)
	}

	current, err := s.page.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(current), "login") {
		return nil
	}

	loginURL, err := common.JoinURL(frontend, s.config.Target.LoginPath)
	if err != nil {
		return err
	}
	if err := s.page.Navigate(ctx, loginURL); err != nil {
		return fmt.Errorf("failed to open %s: %w", loginURL, err)
	}
	return nil
}
