// Package email composes the console's outbound messages. Delivery is
// the queue worker's job.
package email

import (
	"fmt"

	"github.com/safeguardai/console/internal/rbac"
)

const inviteSubject = "You have been invited to SafeGuard Console"

// ComposeInvite renders the invitation sent when an admin pre-registers
// an email. The invitee claims the role on first sign-in.
func ComposeInvite(name, address string, role rbac.Role, consoleURL string) (subject, body string) {
	greeting := "Hello,"
	if name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}

	body = fmt.Sprintf(`%s

You have been invited to the SafeGuard PPE compliance console with the %s role.

Sign in with this email address to activate your account:

    %s

If you were not expecting this invitation you can ignore this message.

SafeGuard Console
`, greeting, role, consoleURL)

	return inviteSubject, body
}
