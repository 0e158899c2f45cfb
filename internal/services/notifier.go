package services

// Notifier is the best-effort message dispatcher. Failures are logged
// by callers and never retried.
type Notifier interface {
	NotifyUser(accountID int64, text string) error
	NotifyChannel(channelID int64, text string) error
}
