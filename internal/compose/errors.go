package compose

import "errors"

// Error taxonomy for the compose path. Everything here is caught at the
// dispatch task boundary and converted into a failed-record update; nothing
// aborts sibling tasks.
var (
	// ErrComposeNotFound means no compose surface could be opened at all.
	ErrComposeNotFound = errors.New("compose surface not found")

	// ErrRecipientInjection means every recipient strategy was exhausted
	// without the address tokenizing.
	ErrRecipientInjection = errors.New("recipient injection failed")

	// ErrBodyInjection means every body strategy was exhausted without the
	// rendered content matching the intended text.
	ErrBodyInjection = errors.New("body injection failed")

	// ErrSendUnconfirmed means the send was issued but neither the UI
	// signal nor the sent-folder scan confirmed it. Treated as a failed
	// send even though the provider may have accepted it: a false negative
	// in the delivery log beats a false positive.
	ErrSendUnconfirmed = errors.New("send unconfirmed")
)
