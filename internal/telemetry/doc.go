// Package telemetry publishes session transitions to an MQTT broker.
//
// A [Sender] is a session observer: it encodes each transition it wants to
// publish and queues it on a bounded channel. [Sender.Run] drains the queue
// on its own goroutine, so a slow broker never stalls the tick loop. When
// the queue is full the message is dropped and counted.
package telemetry
