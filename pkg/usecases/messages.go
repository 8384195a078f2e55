package usecases

import (
	"fmt"
	"strings"

	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
)

const (
	groupSupportTemplate = "Support check 💪 %s has been off for 3+ days. " +
		"If you can, reach out and get a workout in together."
	privateCheckInText = "Quick nudge 🙂 You haven’t logged a workout in a couple days. " +
		"No pressure, just checking in."
)

// ComposeGroupSupport is the broadcast sent to a group about one severe member.
func ComposeGroupSupport(inactiveName string) string {
	name := strings.TrimSpace(inactiveName)
	if name == "" {
		name = consts.DefaultDisplayName
	}

	return fmt.Sprintf(groupSupportTemplate, name)
}

// ComposePrivateCheckIn is sent only to mild members.
func ComposePrivateCheckIn() string {
	return privateCheckInText
}
