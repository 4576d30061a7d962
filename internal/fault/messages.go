package fault

import "errors"

// UserMessage is what the terminal shows for a failed operation: a short
// support code, the message, and a suggested next step.
type UserMessage struct {
	Code    string
	Message string
	Action  string
}

// MapError converts any error into an operator-facing message. Technical
// detail stays in the logs; the screen gets the mapped form.
func MapError(err error) UserMessage {
	if errors.Is(err, ErrCancelled) {
		return UserMessage{
			Code:    "OP000",
			Message: "Operation cancelled.",
			Action:  "Nothing was changed.",
		}
	}

	switch KindOf(err) {
	case KindConfig:
		return UserMessage{
			Code:    "CFG001",
			Message: err.Error(),
			Action:  "Check your environment variables and restart.",
		}
	case KindConnectivity:
		return UserMessage{
			Code:    "NET001",
			Message: "Could not reach the database or remote host.",
			Action:  "Verify connectivity and try again.",
		}
	case KindStructural:
		return UserMessage{
			Code:    "STR001",
			Message: err.Error(),
			Action:  "Check the document has customers/orders collections.",
		}
	case KindTransport:
		return UserMessage{
			Code:    "WEB001",
			Message: err.Error(),
			Action:  "Verify the URL and try again.",
		}
	case KindInvalidState:
		return UserMessage{
			Code:    "IMP001",
			Message: err.Error(),
			Action:  "Only NEW imports can be staged and only IN_REVIEW batches promoted.",
		}
	case KindNotFound:
		return UserMessage{
			Code:    "IMP002",
			Message: err.Error(),
			Action:  "List imports to see valid ids.",
		}
	case KindIntegrity:
		return UserMessage{
			Code:    "INT001",
			Message: err.Error(),
			Action:  "Review the staged rows for this batch.",
		}
	default:
		return UserMessage{
			Code:    "GEN001",
			Message: "Something went wrong.",
			Action:  "Check the logs for details.",
		}
	}
}
