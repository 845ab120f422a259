// Package gpio abstracts the digital lines the controller drives and reads.
//
// Door code only sees the Driver interface: drive a level, read a level,
// and the one-time pin setup done at startup. Two drivers are provided:
//
//   - RPIO: memory-mapped Raspberry Pi GPIO via go-rpio (BCM numbering)
//   - Memory: an in-process pin bank that records every level change,
//     used by tests and by bench runs without hardware
package gpio
