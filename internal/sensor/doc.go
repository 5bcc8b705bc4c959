// Package sensor adapts Linux sysfs sensors to the poller.
//
// An [Adapter] validates loosely typed [Options], derives the sysfs path of
// the sensor, and builds the processing function that parses the file and
// writes one value into the sensor's [Output]. Two adapters are registered:
//
//   - "iio": a channel of an industrial I/O device, parsed by a [ConvertFunc]
//   - "w1therm": a 1-Wire DS18B20 temperature probe
//
// Check fails on the first problem it finds, and the order of its checks is
// part of its contract: callers and tests match on the messages.
package sensor
