package led

// Controller switches a single indicator LED.
type Controller interface {
	// Set turns the LED on or off.
	Set(on bool) error

	// Name returns the LED name, empty for the no-op controller.
	Name() string
}
