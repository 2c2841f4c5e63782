// Package watch implements ports.VersionWatcher: a cron-scheduled Poller for
// sources that cannot notify, and Push for sources implementing ports.Watchable.
// Both report only actual version changes.
package watch
