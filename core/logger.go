package core

// Logger is the app-wide logging contract. Implementations may inspect args
// for well-known types (eg. the acting user) and forward the rest verbatim.
type Logger interface {
	Enable(enabled bool)

	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
