package systemd

import "github.com/coreos/go-systemd/v22/daemon"

// NotifyReady tells systemd the service finished starting up.
// A no-op outside of a Type=notify unit.
func NotifyReady() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	return err
}

// NotifyStopping tells systemd the service has begun shutting down.
func NotifyStopping() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	return err
}
