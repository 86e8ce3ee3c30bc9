//go:build linux

package ui

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// DBusNotifier sends transient desktop notifications through
// org.freedesktop.Notifications.
type DBusNotifier struct {
	conn *dbus.Conn
}

// NewDBusNotifier connects to the session bus. Fails on headless
// systems; callers fall back to ConsoleNotifier.
func NewDBusNotifier() (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &DBusNotifier{conn: conn}, nil
}

// Notify shows a desktop notification that expires on its own.
func (n *DBusNotifier) Notify(title, body string) error {
	obj := n.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		"clipwarden",              // app_name
		uint32(0),                 // replaces_id
		"dialog-warning",          // app_icon
		title,                     // summary
		body,                      // body
		[]string{},                // actions
		map[string]dbus.Variant{}, // hints
		int32(5000),               // expire_timeout ms
	)
	if call.Err != nil {
		return fmt.Errorf("send notification: %w", call.Err)
	}
	return nil
}

// Close drops the bus connection.
func (n *DBusNotifier) Close() error {
	return n.conn.Close()
}
