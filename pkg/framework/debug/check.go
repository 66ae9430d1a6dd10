package debug

// Runtime checks for conditions that indicate a bug but must not take the
// host down. A misbehaving plugin shares the process with every other
// plugin, so a failed expectation is logged and the caller bails out of the
// current operation instead of panicking.

// Check reports whether cond held, logging what at error level when it did
// not. Typical use:
//
//	if !debug.Check(index < count, "parameter index in range") {
//		return 0
//	}
func Check(cond bool, what string) bool {
	if !cond {
		defaultLogger.log(2, LogLevelError, "check failed: %s", what)
	}
	return cond
}

// Checkf is Check with a formatted description. The arguments are only
// evaluated into a message when the check fails.
func Checkf(cond bool, format string, args ...interface{}) bool {
	if !cond {
		defaultLogger.log(2, LogLevelError, "check failed: "+format, args...)
	}
	return cond
}

// CheckErr logs err at error level when it is non-nil and reports whether
// it was nil. It keeps call sites that tolerate a failure to one line.
func CheckErr(err error, what string) bool {
	if err != nil {
		defaultLogger.log(2, LogLevelError, "%s: %v", what, err)
		return false
	}
	return true
}
