// Package bionichand drives a bionic hand built from SCS0009 bus servos and
// lets it follow a Colmi smart ring.
//
// Each finger is pulled by a mirrored pair of servos on one half-duplex
// serial bus. The hand can perform named gestures or mirror how far the ring
// wearer closes their fist, read from the ring's accelerometer over
// Bluetooth LE.
//
// # Installation
//
//	go install github.com/gwillem/bionichand/cmd/bionichand@latest
//
// # Usage
//
// First, run setup to find the hand, record finger centres and pair a ring:
//
//	bionichand setup
//
// Then perform gestures or follow the ring:
//
//	bionichand gesture victory
//	bionichand follow
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/bionichand: CLI with setup, info, gesture, follow and rings commands
//   - pkg/scs: SCS instruction/status framing over a serial port
//   - pkg/servo: Servo commands in degrees and percent, profiles, typed errors
//   - pkg/hand: Fingers, calibration, configuration and gestures
//   - pkg/ring: Colmi ring Bluetooth client and scanner
//   - pkg/follow: Control loop closing the hand as the ring reports
package bionichand
