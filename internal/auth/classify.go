package auth

import "strings"

// RequiresUserIdentity classifies an operation name: ticketing operations
// must run under the interactive user identity, everything else may use the
// machine identity.
//
// Every ticketing endpoint exposed by the API carries "ticket" in its
// operation name, so new ticketing operations pick up the routing without
// registration. Both the credential selector and the manager's flow choice
// use this classifier.
func RequiresUserIdentity(operation string) bool {
	return strings.Contains(strings.ToLower(operation), "ticket")
}

// flowSlot maps an operation to the slot a fresh flow would populate for it.
func flowSlot(operation string) Slot {
	if RequiresUserIdentity(operation) {
		return SlotUser
	}
	return SlotClient
}
