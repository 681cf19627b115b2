// Package component manages start/stop lifecycles for resources owned by a
// scenario, such as the real-time scheduler and the live subscription.
//
// A Registry starts components in registration order and stops them in
// reverse, so later components may depend on earlier ones.
package component
