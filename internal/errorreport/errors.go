package errorreport

import "errors"

var (
	ErrInvalidBotUUID  = errors.New("errorreport: bot uuid is not a valid uuid")
	ErrNoPriorMessage  = errors.New("errorreport: no prior message in thread")
	ErrThreadNotFound  = errors.New("errorreport: no error report found for bot")
	ErrAccountNotFound = errors.New("errorreport: no account found for email")
)
