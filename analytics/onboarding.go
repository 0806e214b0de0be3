package analytics

import (
	"fmt"
	"regexp"

	"github.com/linket-app/linket-go/models"
)

// autoHandlePattern matches the handle shape generated at signup; such
// handles do not count as the tenant having chosen one.
var autoHandlePattern = regexp.MustCompile(`^user-[0-9a-f]{8}$`)

const linkTargetCount = 3

// OnboardingInput is everything the checklist is derived from, already
// fetched by the orchestrator.
type OnboardingInput struct {
	Profiles        []models.Profile
	LinkCounts      map[string]int
	LeadFormLive    bool
	ShareEventCount int
}

// onboardingCheck is one fixed checklist entry. The table guarantees the
// checklist is always exactly these five items in this order.
type onboardingCheck struct {
	id    string
	label string
	eval  func(in OnboardingInput) (bool, string)
}

var onboardingChecks = []onboardingCheck{
	{
		id:    "publish_profile",
		label: "Publish your profile",
		eval: func(in OnboardingInput) (bool, string) {
			for _, p := range in.Profiles {
				if p.IsActive {
					return true, "Profile is live"
				}
			}
			return false, "Activate a profile to go live"
		},
	},
	{
		id:    "publish_lead_form",
		label: "Publish a lead form",
		eval: func(in OnboardingInput) (bool, string) {
			if in.LeadFormLive {
				return true, "Lead form is live"
			}
			return false, "Publish a lead form to start capturing contacts"
		},
	},
	{
		id:    "set_handle",
		label: "Choose your handle",
		eval: func(in OnboardingInput) (bool, string) {
			for _, p := range in.Profiles {
				if p.Handle != "" && !autoHandlePattern.MatchString(p.Handle) {
					return true, "@" + p.Handle
				}
			}
			return false, "Replace the generated handle with your own"
		},
	},
	{
		id:    "add_three_links",
		label: "Add three links",
		eval: func(in OnboardingInput) (bool, string) {
			current := currentProfile(in.Profiles)
			if current == nil {
				return false, fmt.Sprintf("0 of %d links added", linkTargetCount)
			}
			count := in.LinkCounts[current.ID]
			if count >= linkTargetCount {
				return true, fmt.Sprintf("%d links added", count)
			}
			return false, fmt.Sprintf("%d of %d links added", count, linkTargetCount)
		},
	},
	{
		id:    "test_share",
		label: "Test a share",
		eval: func(in OnboardingInput) (bool, string) {
			if in.ShareEventCount > 0 {
				return true, "Share test completed"
			}
			return false, "Share your profile or download the vCard once"
		},
	},
}

// BuildOnboarding evaluates the fixed checklist over the fetched state.
func BuildOnboarding(in OnboardingInput) models.Onboarding {
	onboarding := models.Onboarding{Items: make([]models.OnboardingItem, len(onboardingChecks))}
	for i, check := range onboardingChecks {
		completed, detail := check.eval(in)
		onboarding.Items[i] = models.OnboardingItem{
			ID:        check.id,
			Label:     check.label,
			Completed: completed,
			Detail:    detail,
		}
		if completed {
			onboarding.CompletedCount++
		}
	}
	onboarding.Progress = float64(onboarding.CompletedCount) / float64(len(onboardingChecks))

	return onboarding
}

// currentProfile is the first active profile, else the first profile.
func currentProfile(profiles []models.Profile) *models.Profile {
	for i := range profiles {
		if profiles[i].IsActive {
			return &profiles[i]
		}
	}
	if len(profiles) > 0 {
		return &profiles[0]
	}
	return nil
}
