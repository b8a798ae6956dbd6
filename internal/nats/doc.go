// Package nats exposes the sensor over embedded NATS messaging.
//
// # Architecture
//
//   - Broker: embedded NATS server for one device, used when no external
//     server is configured
//   - Bridge: publishes event bus events to NATS and answers control requests
//
// # Subject Hierarchy
//
//	sensorsim.{device}.events.{event}     # bus events, JSON (server → clients)
//	sensorsim.{device}.control.info       # request: device summary
//	sensorsim.{device}.control.stream     # request: {"enable": true}
//	sensorsim.{device}.control.set        # request: {"name": "exposure", "value": 100}
//
// Events use fire-and-forget core NATS, no JetStream. Control subjects are
// request/reply and always answer with a Reply.
//
// # Debugging with nats CLI
//
// Monitor every event:
//
//	nats sub "sensorsim.>" -s nats://localhost:4222
//
// Start streaming:
//
//	nats req "sensorsim.ds90ub940.control.stream" '{"enable":true}'
//
// Flip the image horizontally:
//
//	nats req "sensorsim.ds90ub940.control.set" '{"name":"horizontal_flip","value":1}'
//
// # Message Formats
//
// Reply (every control subject):
//
//	{
//	  "ok": false,
//	  "error": "control is read-only",
//	  "data": null
//	}
package nats
