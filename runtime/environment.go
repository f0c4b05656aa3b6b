package runtime

// Environment is a collection of global resources that are shared between
// subsystems for the life-time of the worker process.
type Environment struct {
	TemporaryStorage TemporaryStorage
	Monitor          Monitor
}
