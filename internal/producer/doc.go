// Package producer provides the live sources read by the stream drivers.
//
// Sources publish into a Latest holder: every reader samples the most recent
// value and no reader ever queues. The camera, microphone and speaker here
// are synthetic generators that stand in for capture hardware; they publish
// at a fixed rate until their Run context is cancelled.
//
// Published values are immutable. Producers allocate a new frame, chunk or
// image for every publish and readers must not modify what they receive.
package producer
