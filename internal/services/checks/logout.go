package checks

import (
	"context"

	"github.com/ternarybob/uiprobe/internal/models"
)

const LogoutCheckName = "logout"

var LogoutLocator = models.ByText("button, a", "Logout")

// Logout signs the current role out and records logout
func (s *Suite) Logout(ctx context.Context, role string) Verdict {
	s.logger.Info().Str("role", role).Msg("Testing logout")

	return s.verifier.Verify(ctx, Verification{
		Name:       LogoutCheckName,
		Shot:       LogoutCheckName + "_" + role,
		Conclusive: true,
		Act: func(ctx context.Context) error {
			return s.click(ctx, "Logout control not found", LogoutLocator)
		},
		Await: AwaitURLContains(s.settle, "login", "still on dashboard"),
	})
}
