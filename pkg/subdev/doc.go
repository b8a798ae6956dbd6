// Package subdev models a camera sensor sub-device in pure Go.
//
// The model follows the V4L2 sub-device contract of the DS90UB940 fake
// sensor: a fixed catalog of output modes, a negotiated media bus format with
// an active (device-global) and a trial (per-session) copy, a registry of
// sensor controls and a two-state streaming switch. No hardware is touched.
//
// # Construction
//
// New wires the device to its collaborators and unwinds in reverse order if
// any step fails:
//
//	dev, err := subdev.New(
//		subdev.WithLogger(logger),
//		subdev.WithPower(pm),
//		subdev.WithMediaGraph(graph),
//		subdev.WithAsyncRegistrar(notifier),
//	)
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//
// # Negotiation
//
//	sess := dev.Open()
//	trial, _ := dev.SetFormat(sess, subdev.WhichTrial, 1280, 720)
//	active, _ := dev.SetFormat(nil, subdev.WhichActive, 1280, 720)
//
// Active requests snap to the nearest catalog mode. The media bus code is
// never negotiable; it always follows the selected mode.
//
// # Concurrency
//
// Every mutating call and the format reads take the device mutex for their
// whole duration. Control handlers and stream observers run under that mutex
// and must not call back into the device.
package subdev
