package app

/* ----------------------------------------
	MESSAGES
---------------------------------------- */

// WdMsg is a progress note shown while an action is still running.
type WdMsg string

// DoneMsg carries the final output of a successful action.
type DoneMsg string

// ErrMsg carries a failed action's error; the view maps it to an
// operator-facing message.
type ErrMsg struct{ Err error }

// previewMsg asks the operator to approve a fetched document. The action
// goroutine blocks on the answer channel until a key is pressed.
type previewMsg string

// loginMsg reports the outcome of a credential check.
type loginMsg struct {
	ok  bool
	err error
}
