// Package monitor serves a live view of the traffic on an XpressNet
// connection.
//
// A Server fans every published message out to WebSocket subscribers on
// /events and answers /status with a JSON snapshot (track power, last
// broadcast, subscriber count). It does not read the bus itself: the
// owner of the session feeds it through Publish, typically from an
// OnBroadcast hook plus a ReceiveOne loop.
package monitor
