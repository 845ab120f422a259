// Package router maps inbound door messages to door actions.
//
// The topic table is fixed at startup: one actuate topic and one status
// topic per door. Dispatch is an exact-match lookup of the topic followed
// by an exact match of the payload token for that command kind:
//
//	garage/door/left          push -> pulse left actuator, no reply
//	garage/door/right         push -> pulse right actuator, no reply
//	garage/door/left/status   get  -> reply "status:open" | "status:closed"
//	garage/door/right/status  get  -> reply "status:open" | "status:closed"
//
// Anything else is ignored without a reply or an error. Only hardware
// faults are returned to the caller.
package router
