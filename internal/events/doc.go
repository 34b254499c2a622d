// Package events provides ready-made engine.Event sinks.
package events
