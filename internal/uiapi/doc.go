// Package uiapi offers typed wrappers over the UI request methods.
//
// Window queries travel on the state class so they overtake queued
// mutations. Window mutations, dialogs and the remaining groups (webview,
// monitor, shortcut, notification, application, platform window extras)
// travel on the method class. Window identifiers are optional: a nil ID
// addresses the window the UI considers current.
package uiapi
