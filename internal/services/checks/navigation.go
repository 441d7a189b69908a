package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/models"
)

// NavigationCheckName is the record name for a navigation target
func NavigationCheckName(text string) string {
	return "navigation_" + strings.ToLower(strings.ReplaceAll(strings.TrimSpace(text), " ", "_"))
}

// Navigate clicks the link or button labelled target.Text and checks the resulting URL.
// A URL without the expected fragment is UNKNOWN: client-side routes can legitimately differ.
func (s *Suite) Navigate(ctx context.Context, role string, target common.NavigationTarget) Verdict {
	name := NavigationCheckName(target.Text)

	return s.verifier.Verify(ctx, Verification{
		Name: name,
		Shot: name + "_" + role,
		Act: func(ctx context.Context) error {
			return s.click(ctx,
				fmt.Sprintf("Navigation link '%s' not found", target.Text),
				models.ByText("a, button", target.Text))
		},
		Await: AwaitURLContains(s.navSettle, target.Expect, ""),
	})
}

// NavigateAll runs every configured navigation target in order, stopping once ctx is done
func (s *Suite) NavigateAll(ctx context.Context, role string) []Verdict {
	verdicts := make([]Verdict, 0, len(s.config.Navigation))
	for _, target := range s.config.Navigation {
		if ctx.Err() != nil {
			break
		}
		verdicts = append(verdicts, s.Navigate(ctx, role, target))
	}
	return verdicts
}
